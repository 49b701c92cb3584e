package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	marketusecase "trendsignal/internal/feature/marketdata/usecase"
	"trendsignal/internal/platform/cache"
	"trendsignal/internal/platform/externalapi/alphavantage"
	httpx "trendsignal/internal/platform/http"
	infraredis "trendsignal/internal/platform/redis"
	"trendsignal/internal/shared/ratelimiter"
)

// The free Alpha Vantage tier allows 5 requests per minute.
const requestsPerMinute = 5

func main() {
	_ = godotenv.Load()

	avCfg := alphavantage.LoadConfig()
	if avCfg.APIKey == "" {
		log.Fatal("ALPHA_VANTAGE_API_KEY is not set")
	}

	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Fatal("Redis is required for prefetching:", err)
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

	rl := ratelimiter.NewRateLimiter(requestsPerMinute, time.Minute)
	prefetchUC := marketusecase.NewPrefetchUsecase(fetchUC, rl)

	symbols := splitCSV(os.Getenv("INGEST_SYMBOLS"))
	if len(symbols) == 0 {
		symbols = []string{"AAPL", "MSFT", "GOOG"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := prefetchUC.PrefetchAll(ctx, symbols); err != nil {
		log.Fatal(err)
	}
	log.Println("prefetch ok")
}

func splitCSV(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
