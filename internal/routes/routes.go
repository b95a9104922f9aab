package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/uniportal/PortalBack/internal/config"
	"github.com/uniportal/PortalBack/internal/directory"
	"github.com/uniportal/PortalBack/internal/handlers"
	"github.com/uniportal/PortalBack/internal/middleware"
	"github.com/uniportal/PortalBack/internal/repository"
	"github.com/uniportal/PortalBack/internal/services"
)

// RegisterRoutes wires the messaging API. A nil db selects the in-memory
// conversation store and message log.
func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	identities *directory.Directory,
	logger zerolog.Logger,
) error {
	if identities == nil {
		return errors.New("identity directory is required")
	}

	chatService := newChatService(db, identities, logger)
	chatHandler := handlers.NewChatHandler(chatService, identities, logger)
	directoryHandler := handlers.NewDirectoryHandler(identities)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if cfg.EnableMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := app.Group("/api/v1")

	dir := api.Group("/directory")
	dir.Get("/doctors", directoryHandler.ListDoctors)
	dir.Get("/:role/:id", directoryHandler.GetParticipant)

	conversations := api.Group("/conversations", middleware.PortalIdentity())
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.OpenConversation)
	conversations.Get("/:id", chatHandler.GetConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/read", chatHandler.MarkRead)

	api.Get("/unread", middleware.PortalIdentity(), chatHandler.UnreadBadge)

	return nil
}

func newChatService(db *pgxpool.Pool, identities *directory.Directory, logger zerolog.Logger) *services.ChatService {
	if db != nil {
		logger.Info().Str("backend", config.StorePostgres).Msg("messaging store selected")
		return services.NewChatService(
			repository.NewConversationRepository(db),
			repository.NewMessageRepository(db),
			identities,
			logger,
		)
	}

	logger.Info().Str("backend", config.StoreMemory).Msg("messaging store selected")
	conversations := repository.NewMemoryConversationRepository()
	return services.NewChatService(
		conversations,
		repository.NewMemoryMessageRepository(conversations),
		identities,
		logger,
	)
}
