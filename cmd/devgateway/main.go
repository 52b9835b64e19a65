package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/saku-730/species-catalog/internal/devgateway"
	"github.com/saku-730/species-catalog/internal/utils"
)

// devgateway: ホスト型バックエンドなしで開発するためのゲートウェイ代役
// 本番では使わない。docker-composeのPostgresに合わせたデフォルト値を持つ

func main() {
	godotenv.Load()

	pgHost := envOr("PGHOST", "localhost")
	pgPort := envOr("PGPORT", "5432")
	pgUser := envOr("PGUSER", "catalog_user")
	pgPass := envOr("PGPASSWORD", "catalog_pass") // docker-compose.ymlと合わせる！
	pgDB := envOr("PGDATABASE", "species_catalog")

	utils.SetSecret(os.Getenv("JWT_SECRET"))

	db := devgateway.NewPostgresDB(pgHost, pgPort, pgUser, pgPass, pgDB)
	if err := devgateway.EnsureSchema(db); err != nil {
		log.Fatalf("❌ スキーマ作成に失敗: %v", err)
	}

	store := devgateway.NewStore(db)
	h := devgateway.NewHandler(store)
	r := devgateway.SetupRouter(h)

	fmt.Println("🗄️ devgateway起動: http://localhost:9000")
	r.Run(":9000")
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
