package main

import (
	"context"
	"fmt"
	"log"

	"github.com/geleouet/pioupiou/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	// Best-effort: an already provisioned schema logs and moves on.
	core.InitSchema(ctx, db)

	var sessions core.SessionStore
	if cfg.RedisURL != "" {
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
		sessions = core.NewRedisSessionStore(redisClient, cfg.SessionTTL)
		log.Printf("sessions stored in redis")
	} else {
		store := core.NewMemorySessionStore(cfg.SessionTTL)
		defer store.Close()
		sessions = store
	}

	accounts := core.NewPgAccountRepository(db)
	messages := core.NewPgMessageRepository(db)
	follows := core.NewPgFollowRepository(db)

	router := core.NewRouter(cfg, core.Services{
		Sessions: sessions,
		Auth:     core.NewAuthService(accounts, cfg.HashCost),
		Feed:     core.NewFeedService(messages, accounts),
		Messages: messages,
		Follows:  follows,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
