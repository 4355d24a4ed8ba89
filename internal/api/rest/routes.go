package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eduline/billing-service/internal/api/rest/handlers"
	"github.com/eduline/billing-service/internal/api/rest/middleware"
	"github.com/eduline/billing-service/pkg/logger"
)

// RouterDeps зависимости маршрутизатора
type RouterDeps struct {
	Billing *handlers.BillingHandler
	Webhook *handlers.WebhookHandler
	Import  *handlers.ImportHandler
	Auth    *middleware.JWTMiddleware
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(log *logger.Logger, registry *prometheus.Registry, deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		// Биллинг, только для аутентифицированных пользователей
		billing := v1.Group("/billing")
		billing.Use(deps.Auth.RequireAuth())
		{
			billing.POST("/checkout", deps.Billing.CreateCheckout)
			billing.GET("/portal", deps.Billing.CreatePortal)
		}

		// Административный импорт контента, закрыт секретом в заголовке
		content := v1.Group("/content")
		{
			content.POST("/import", deps.Import.RunImport)
		}
	}

	// Вебхуки на корневом уровне роутера
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/stripe", deps.Webhook.HandleStripeWebhook)
	}

	return r
}
