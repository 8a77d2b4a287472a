package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/neroduckale/TestifyBoyfriend/internal/adapters/store"
	"github.com/neroduckale/TestifyBoyfriend/internal/app"
	"github.com/neroduckale/TestifyBoyfriend/internal/config"
	"github.com/neroduckale/TestifyBoyfriend/internal/core"
)

func authMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, engine *app.Engine, roster core.Roster, settings *store.SettingsProvider) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")

	h := &handlers{engine: engine, roster: roster, settings: settings}

	api := r.Group("/api", authMiddleware(cfg.OperatorToken))
	guild := api.Group("/guilds/:guild")
	guild.POST("/members/:user/mute", h.mute)
	guild.POST("/members/:user/unmute", h.unmute)
	guild.POST("/members/:user/ban", h.ban)
	guild.POST("/members/:user/unban", h.unban)
	guild.GET("/members/:user", h.record)
	guild.PUT("/settings", h.putSettings)

	return r
}
