package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/ecomlab/payrelay/handler"
)

// Routes mounts the relay's HTTP surface onto the router.
func Routes(r chi.Router, payment *handler.PaymentHandler, webhook *handler.WebhookHandler, health *handler.HealthHandler, logs *handler.LogsHandler) {
	r.Get("/health", health.Health)

	r.Route("/payment", func(r chi.Router) {
		r.Post("/", payment.CreatePayment)
		r.Get("/", payment.GetPayment)
		r.Post("/refund", payment.RefundPayment)
		r.Post("/cancel", payment.CancelPayment)
	})

	r.Post("/webhook/{gateway}", webhook.Handle)

	r.Route("/logs", func(r chi.Router) {
		r.Get("/", logs.ListConversationLogs)
		r.Get("/errors", logs.ListErrorLogs)
	})
}
