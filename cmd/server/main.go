package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	analysisadapters "trendsignal/internal/feature/analysis/adapters"
	analysisusecase "trendsignal/internal/feature/analysis/usecase"
	markethandler "trendsignal/internal/feature/marketdata/transport/handler"
	marketusecase "trendsignal/internal/feature/marketdata/usecase"

	"trendsignal/internal/app/router"
	"trendsignal/internal/platform/cache"
	infradb "trendsignal/internal/platform/db"
	"trendsignal/internal/platform/externalapi/alphavantage"
	httpx "trendsignal/internal/platform/http"
	infraredis "trendsignal/internal/platform/redis"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	avCfg := alphavantage.LoadConfig()
	if avCfg.APIKey == "" {
		log.Fatal("ALPHA_VANTAGE_API_KEY is not set")
	}

	db := infradb.OpenDB()

	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	provider := alphavantage.NewClient(avCfg, httpx.NewHTTPClient(avCfg.Timeout))
	store := cache.NewSnapshotStore(rdb, "snapshots")

	fetchUC := marketusecase.NewFetchUsecase(provider, store)
	analysisRepo := analysisadapters.NewAnalysisRepository(db)
	analyzeUC := analysisusecase.NewAnalyzeUsecase(analysisusecase.DefaultSettings(), analysisRepo)

	marketH := markethandler.NewMarketHandler(fetchUC, analyzeUC)

	r := router.NewRouter(marketH)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
