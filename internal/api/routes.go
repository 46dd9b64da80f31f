package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	registerServiceRoutes(app, handler)
	registerAPIRoutes(app, handler)
	app.Get("/ws", handler.WebSocketUpgrade, handler.WebSocket())
}

func registerServiceRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	if handler.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(handler.metrics.Registry(), promhttp.HandlerOpts{})))
	}
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)
	auth.Get("/me", handler.AuthRequired, handler.Me)
	auth.Put("/telegram", handler.AuthRequired, handler.LinkTelegram)

	couple := api.Group("/couple", handler.AuthRequired)
	couple.Get("/status", handler.CoupleStatus)
	couple.Post("/invite", handler.CreateInvite)
	couple.Post("/join", handler.JoinCouple)
	couple.Post("/disconnect", handler.DisconnectCouple)

	questions := api.Group("/questions", handler.AuthRequired)
	questions.Get("", handler.ListQuestions)
	questions.Get("/categories", handler.QuestionCategories)
	questions.Get("/daily-assignment", handler.DailyAssignment)
	questions.Get("/:id", handler.GetQuestion)

	api.Post("/answer", handler.AuthRequired, handler.SubmitAnswer)
	api.Get("/answer-status", handler.AuthRequired, handler.AnswerStatus)

	answers := api.Group("/answers", handler.AuthRequired)
	answers.Get("/partner", handler.PartnerAnswer)
	answers.Get("/history", handler.AnswerHistory)
	answers.Get("/stats", handler.AnswerStats)

	moods := api.Group("/moods", handler.AuthRequired)
	moods.Post("", handler.RecordMood)
	moods.Get("", handler.ListMoods)

	memories := api.Group("/memories", handler.AuthRequired)
	memories.Post("", handler.AddMemory)
	memories.Get("", handler.ListMemories)

	ddays := api.Group("/ddays", handler.AuthRequired)
	ddays.Get("", handler.ListDDays)
	ddays.Post("", handler.CreateDDay)
	ddays.Put("/:id", handler.UpdateDDay)
	ddays.Delete("/:id", handler.DeleteDDay)

	notifications := api.Group("/notifications", handler.AuthRequired)
	notifications.Get("", handler.ListNotifications)
	notifications.Get("/unread-count", handler.UnreadCount)
	notifications.Get("/types", handler.NotificationTypes)
	notifications.Post("/read-all", handler.MarkAllNotificationsRead)
	notifications.Post("/clear-read", handler.ClearReadNotifications)
	notifications.Post("/:id/read", handler.MarkNotificationRead)
	notifications.Delete("/:id", handler.DeleteNotification)
}
