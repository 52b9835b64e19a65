package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/saku-730/species-catalog/internal/handler"
	"github.com/saku-730/species-catalog/internal/middleware"
)

func SetupRouter(
	speciesHandler *handler.SpeciesHandler,
	dialogHandler *handler.DialogHandler,
) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		// フロント(Next.js)は別オリジンで動くので全部許可
		AllowAllOrigins: true,

		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},

		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},

		ExposeHeaders: []string{"Content-Length"},

		// AllowAllOrigins:true のときは false にしないと怒られる
		AllowCredentials: false,

		MaxAge: 12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		// 閲覧系はログインなしでもOK（ログイン済みなら所有フラグが付く）
		api.GET("/species", middleware.OptionalAuth(), speciesHandler.GetAll)
		api.GET("/search", speciesHandler.Search)

		// 詳細ダイアログ（開く・コメント・閉じる）
		api.POST("/species/:id/dialog", middleware.OptionalAuth(), dialogHandler.Open)
		api.POST("/dialogs/:dialogID/comments", middleware.OptionalAuth(), dialogHandler.AddComment)
		api.DELETE("/dialogs/:dialogID/comments/:commentID", middleware.OptionalAuth(), dialogHandler.DeleteComment)
		api.DELETE("/dialogs/:dialogID", dialogHandler.Close)

		// 書き込み系はログイン必須
		protected := api.Group("/")
		protected.Use(middleware.AuthRequired())
		{
			protected.POST("/species", speciesHandler.Create)
			protected.PUT("/species/:id", speciesHandler.Update)
			protected.DELETE("/species/:id", speciesHandler.Delete)
		}
	}

	return r
}
