package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/uniportal/PortalBack/internal/models"
	"github.com/uniportal/PortalBack/internal/services"
)

type chatApplicationService interface {
	OpenOrCreate(ctx context.Context, role models.Role, selfID int64, otherID int64, otherName string, otherEmail string) (*models.Conversation, error)
	ListConversations(ctx context.Context, role models.Role, participantID int64) ([]models.Conversation, error)
	GetConversationFor(ctx context.Context, role models.Role, participantID int64, conversationID int64) (*models.Conversation, error)
	ListMessages(ctx context.Context, conversationID int64) ([]models.ChatMessage, error)
	Send(ctx context.Context, conversationID int64, text string, senderRole models.Role, senderName string) (*models.ChatMessage, error)
	MarkRead(ctx context.Context, conversationID int64, role models.Role) (int, error)
	UnreadBadge(ctx context.Context, role models.Role, participantID int64) (int, error)
}

type participantResolver interface {
	Resolve(role models.Role, id int64) models.Participant
}

type ChatHandler struct {
	service    chatApplicationService
	identities participantResolver
	logger     zerolog.Logger
}

type openConversationRequest struct {
	OtherID    int64  `json:"other_id"`
	OtherName  string `json:"other_name"`
	OtherEmail string `json:"other_email"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func NewChatHandler(service chatApplicationService, identities participantResolver, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service:    service,
		identities: identities,
		logger:     logger,
	}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	role, userID, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing portal identity"})
	}

	conversations, err := h.service.ListConversations(c.Context(), role, userID)
	if err != nil {
		return h.mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

func (h *ChatHandler) OpenConversation(c *fiber.Ctx) error {
	role, userID, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing portal identity"})
	}

	var req openConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	conversation, err := h.service.OpenOrCreate(c.Context(), role, userID, req.OtherID, req.OtherName, req.OtherEmail)
	if err != nil {
		return h.mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"conversation": conversation})
}

func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	role, userID, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing portal identity"})
	}

	conversationID, err := parseConversationID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	conversation, err := h.service.GetConversationFor(c.Context(), role, userID, conversationID)
	if err != nil {
		return h.mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"conversation": conversation})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	role, userID, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing portal identity"})
	}

	conversationID, err := parseConversationID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	if _, err := h.service.GetConversationFor(c.Context(), role, userID, conversationID); err != nil {
		return h.mapChatError(c, err)
	}

	messages, err := h.service.ListMessages(c.Context(), conversationID)
	if err != nil {
		return h.mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	role, userID, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing portal identity"})
	}

	conversationID, err := parseConversationID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if _, err := h.service.GetConversationFor(c.Context(), role, userID, conversationID); err != nil {
		return h.mapChatError(c, err)
	}

	sender := h.identities.Resolve(role, userID)
	message, err := h.service.Send(c.Context(), conversationID, req.Text, role, sender.Name)
	if err != nil {
		return h.mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	role, userID, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing portal identity"})
	}

	conversationID, err := parseConversationID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	if _, err := h.service.GetConversationFor(c.Context(), role, userID, conversationID); err != nil {
		return h.mapChatError(c, err)
	}

	marked, err := h.service.MarkRead(c.Context(), conversationID, role)
	if err != nil {
		return h.mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"marked": marked})
}

func (h *ChatHandler) UnreadBadge(c *fiber.Ctx) error {
	role, userID, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing portal identity"})
	}

	count, err := h.service.UnreadBadge(c.Context(), role, userID)
	if err != nil {
		return h.mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"unread": count})
}

func parseActor(c *fiber.Ctx) (models.Role, int64, error) {
	roleValue, _ := c.Locals("role").(string)
	userIDValue, ok := c.Locals("user_id").(string)
	if !ok {
		return "", 0, strconv.ErrSyntax
	}

	userID, err := strconv.ParseInt(userIDValue, 10, 64)
	if err != nil {
		return "", 0, err
	}
	return models.Role(roleValue), userID, nil
}

func parseConversationID(c *fiber.Ctx) (int64, error) {
	conversationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	if conversationID <= 0 {
		return 0, strconv.ErrRange
	}
	return conversationID, nil
}

func (h *ChatHandler) mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidRole), errors.Is(err, services.ErrNotConversationMember):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrConversationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
	default:
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("chat request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
