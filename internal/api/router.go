package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
)

// SetupRouter builds the fiber app with every route registered.
func SetupRouter(h *Handler, server config.ServerConfig, appLogger *zap.Logger) *fiber.App {
	bodyLimit := server.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 10
	}

	app := fiber.New(fiber.Config{
		AppName:   "merchant-fee-intake",
		BodyLimit: bodyLimit * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := statusFor(err)
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: zap.NewStdLog(appLogger).Writer(),
	}))

	app.Get("/api/health", h.Health)

	v1 := app.Group("/api/v1")
	v1.Get("/schemas", h.Schemas)

	txns := v1.Group("/transactions")
	txns.Get("/template", h.Template)
	txns.Post("/upload", h.Upload)
	txns.Post("/validate", h.ValidateManual)

	v1.Get("/batches", h.ListBatches)

	drafts := v1.Group("/drafts")
	drafts.Post("", h.CreateDraft)
	drafts.Get("/:id", h.GetDraft)
	drafts.Delete("/:id", h.DeleteDraft)
	drafts.Post("/:id/rows", h.AddDraftRow)
	drafts.Patch("/:id/rows/:index", h.UpdateDraftRow)
	drafts.Delete("/:id/rows/:index", h.RemoveDraftRow)
	drafts.Post("/:id/rows/:index/duplicate", h.DuplicateDraftRow)
	drafts.Post("/:id/clear", h.ClearDraft)
	drafts.Post("/:id/validate", h.ValidateDraft)

	v1.Post("/calculations/merchant-fee", h.CalculateMerchantFee)

	return app
}
