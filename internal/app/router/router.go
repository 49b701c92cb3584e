package router

import (
	"github.com/gin-gonic/gin"

	markethandler "trendsignal/internal/feature/marketdata/transport/handler"
)

// NewRouter wires the HTTP routes.
func NewRouter(market *markethandler.MarketHandler) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", markethandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/candles/:symbol", market.GetCandles)
		v1.GET("/analysis/:symbol", market.GetAnalysis)
		v1.GET("/movers", market.GetTopMovers)
		v1.GET("/crypto/symbols", market.GetCryptoSymbols)
	}

	return r
}
