package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"perpology/internal/api"
	"perpology/internal/config"
	"perpology/internal/redis"
	"perpology/internal/service/ai"
	"perpology/internal/service/chat"
	"perpology/internal/service/market"
	"perpology/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("PERPOLOGY_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("PERPOLOGY_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	rdb, err := redis.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("create redis client: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	gateway, err := market.NewGateway(cfg.Market, rdb)
	if err != nil {
		log.Fatalf("init market gateway: %v", err)
	}

	generator, err := ai.NewService(cfg, gateway)
	if err != nil {
		log.Fatalf("init AI service: %v", err)
	}

	store := chat.NewStore(db)
	handlers := api.NewHandler(store, generator, gateway)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8080"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
