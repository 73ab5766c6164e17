package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// NewRouter собирает маршруты UI-слоя. gin.Recovery — внешняя граница:
// паника обработчика превращается в восстановимый 500-ответ, а не роняет
// процесс целиком.
func NewRouter(handler *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger())

	api := r.Group("/api")
	{
		api.GET("/orders", handler.ListOrders)
		api.GET("/orders/:id", handler.GetOrder)
		api.PATCH("/orders/:id/status", handler.UpdateOrderStatus)

		api.POST("/refresh", handler.RefreshOrders)
		api.GET("/connection", handler.Connection)
		api.POST("/connect", handler.Connect)
		api.POST("/disconnect", handler.Disconnect)
	}

	return r
}

// requestID помечает каждый запрос идентификатором для корреляции логов.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	logger := log.WithField("component", "httpapi")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
			"request_id": c.GetString("request_id"),
		}).Debug("request handled")
	}
}
