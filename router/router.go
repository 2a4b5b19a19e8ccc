package router

import (
	"log"

	"maritaca/config"
	"maritaca/controllers"
	"maritaca/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares.
func Initialize(r *gin.Engine, cfg config.Configuration, webhook *controllers.WebhookController) {
	_ = cfg

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestID())

	api := r.Group("/api")

	// Webhook (WhatsApp) - multi-tenant: /webhook/:instance
	// Mantém /webhook funcionando em dev via env WEBHOOK_DEFAULT_INSTANCE
	api.GET("/webhook", webhook.Verify)
	api.POST("/webhook", webhook.Update)
	api.GET("/webhook/:instance", webhook.Verify)
	api.POST("/webhook/:instance", webhook.Update)

	// Scheduled messages (follow-ups)
	api.POST("/scheduled-messages", Logger(), controllers.CreateScheduledMessage)
	api.GET("/scheduled-messages", Logger(), controllers.GetScheduledMessages)
	api.GET("/scheduled-messages/:id", Logger(), controllers.GetScheduledMessageByID)
	api.POST("/scheduled-messages/:id/pause", Logger(), controllers.PauseScheduledMessage)
	api.POST("/scheduled-messages/:id/resume", Logger(), controllers.ResumeScheduledMessage)
	api.DELETE("/scheduled-messages/:id", Logger(), controllers.DeleteScheduledMessage)

	// Campaign cancellation
	api.DELETE("/campaigns/by-tag", Logger(), controllers.DeleteScheduledMessagesByTag)
	api.DELETE("/campaigns/by-tipo", Logger(), controllers.DeleteScheduledMessagesByTipo)
	api.POST("/campaigns/cancel-pending", Logger(), controllers.CancelPendingScheduledMessages)

	// Instances (tenant credentials)
	api.GET("/instances", Logger(), controllers.GetInstances)
	api.GET("/instances/:id", Logger(), controllers.GetInstanceByID)
	api.POST("/instances", Logger(), controllers.CreateInstance)
	api.DELETE("/instances/:id", Logger(), controllers.DeleteInstance)

	// Flush audit trail
	api.GET("/events", Logger(), controllers.GetEvents)
	api.GET("/events/:id", Logger(), controllers.GetEventByID)

	log.Printf("Routes initialized")
}
