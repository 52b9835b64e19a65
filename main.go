package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/saku-730/species-catalog/internal/dialog"
	"github.com/saku-730/species-catalog/internal/gateway/rest"
	"github.com/saku-730/species-catalog/internal/handler"
	"github.com/saku-730/species-catalog/internal/router"
	"github.com/saku-730/species-catalog/internal/search"
	"github.com/saku-730/species-catalog/internal/utils"
	"github.com/saku-730/species-catalog/internal/view"
)

func main() {
	godotenv.Load()

	gatewayURL := getEnv("GATEWAY_URL")      // ホスト型ストア (またはdevgateway) のURL
	gatewayKey := getEnv("GATEWAY_ANON_KEY") // 匿名読み取り用キー
	meiliURL := getEnv("NEXT_PUBLIC_MEILI_URL")
	meiliKey := getEnv("NEXT_PUBLIC_MEILI_KEY")

	// トークン署名鍵はゲートウェイと共有（未設定なら開発鍵のまま）
	utils.SetSecret(os.Getenv("JWT_SECRET"))

	// 1. 依存関係の組み立て (DI)
	// ゲートウェイ接続は全コンポーネントで共有する（セッショントークンはcontextで流す）
	gw := rest.NewClient(gatewayURL, gatewayKey)
	searchRepo := search.NewRepository(meiliURL, meiliKey)

	listView := view.NewListView(gw, logNotifier{})
	dialogManager := dialog.NewManager(gw)

	speciesHandler := handler.NewSpeciesHandler(gw, listView, searchRepo)
	dialogHandler := handler.NewDialogHandler(gw, dialogManager)

	r := router.SetupRouter(speciesHandler, dialogHandler)

	// 2. サーバー起動
	fmt.Println("🚀 APIサーバー起動: http://localhost:8080")
	r.Run(":8080")
}

// logNotifier: ハンドラーを通らない通知の逃がし先
type logNotifier struct{}

func (logNotifier) Success(message string) { log.Printf("✅ %s", message) }
func (logNotifier) Error(message string)   { log.Printf("❌ %s", message) }

func getEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		log.Fatalf("❌ 致命的エラー: 必須環境変数 '%s' が設定されていない！ .envファイルを確認してほしい", key)
	}
	return value
}
