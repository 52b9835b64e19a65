package devgateway

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter: 本物のゲートウェイと同じパス構成にする
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	auth := r.Group("/auth/v1")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	rest := r.Group("/rest/v1")
	{
		rest.GET("/species", h.SpeciesGet)
		rest.POST("/species", h.SpeciesPost)
		rest.PATCH("/species", h.SpeciesPatch)
		rest.DELETE("/species", h.SpeciesDelete)

		rest.GET("/profiles", h.ProfilesGet)

		rest.GET("/comments", h.CommentsGet)
		rest.POST("/comments", h.CommentsPost)
		rest.DELETE("/comments", h.CommentsDelete)
	}

	return r
}
