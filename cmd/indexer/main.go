package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/saku-730/species-catalog/internal/gateway/rest"
	"github.com/saku-730/species-catalog/internal/search"
)

// indexer: ゲートウェイの種スナップショットをMeilisearchへ流し込むバッチ
// 書き込み経路ではインデックスに触らないので、これを定期実行して追いつかせる

func main() {
	godotenv.Load()

	log.Println("🚀 Starting species indexer")

	gw := rest.NewClient(getEnv("GATEWAY_URL"), getEnv("GATEWAY_ANON_KEY"))
	searchRepo := search.NewRepository(getEnv("NEXT_PUBLIC_MEILI_URL"), getEnv("NEXT_PUBLIC_MEILI_KEY"))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	list, err := gw.ListSpecies(ctx)
	if err != nil {
		log.Fatalf("❌ スナップショット取得に失敗: %v", err)
	}
	log.Printf("📝 Indexing %d species...", len(list))

	if err := searchRepo.IndexSpecies(list); err != nil {
		log.Fatalf("❌ Indexing failed: %v", err)
	}

	log.Println("✅ All species indexed successfully!")
}

func getEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		log.Fatalf("❌ 致命的エラー: 必須環境変数 '%s' が設定されていない！", key)
	}
	return value
}
