package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sevans717/aphila-sub007/internal/httpx"
	"github.com/sevans717/aphila-sub007/internal/models"
	"github.com/sevans717/aphila-sub007/internal/service"
	"github.com/sevans717/aphila-sub007/internal/validation"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type sendMessageInput struct {
	MatchID     uint   `json:"match_id"`
	Content     string `json:"content"`
	ClientNonce string `json:"client_nonce"`
	ParentID    *uint  `json:"parent_id,omitempty"`
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input sendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.MatchID == 0 {
		return httpx.BadRequest(c, "missing_match_id", "match_id is required")
	}
	if !validation.ValidateNonce(input.ClientNonce) {
		return httpx.BadRequest(c, "invalid_client_nonce", "client_nonce must be 1-64 url-safe characters")
	}

	content := validation.TrimAndLimit(input.Content, validation.MaxMessageLength())
	if content == "" {
		return httpx.BadRequest(c, "empty_content", "Message content cannot be empty")
	}

	message, err := h.messageService.Send(input.MatchID, userID, content, input.ClientNonce, input.ParentID)
	if err != nil {
		if message != nil && message.Status == models.StatusFailed {
			return httpx.Internal(c, "message_persist_failed")
		}
		return serviceError(c, err, "send_failed")
	}
	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

func (h *MessageHandler) History(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	matchID, err := strconv.ParseUint(c.Query("match_id"), 10, 32)
	if err != nil || matchID == 0 {
		return httpx.BadRequest(c, "invalid_match_id", "match_id query parameter is required")
	}

	var beforeSeq uint64
	if cursor := c.Query("cursor"); cursor != "" {
		beforeSeq, err = strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return httpx.BadRequest(c, "invalid_cursor", "cursor must be a sequence number")
		}
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	messages, err := h.messageService.History(uint(matchID), userID, beforeSeq, limit)
	if err != nil {
		return serviceError(c, err, "history_failed")
	}

	responses := make([]interface{}, 0, len(messages))
	var nextCursor uint64
	for i := range messages {
		responses = append(responses, messages[i].ToResponse())
	}
	if len(messages) > 0 {
		nextCursor = messages[0].Seq
	}
	return c.JSON(fiber.Map{
		"messages":    responses,
		"next_cursor": nextCursor,
	})
}

func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messageID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || messageID == 0 {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	message, err := h.messageService.MarkRead(uint(messageID), userID)
	if err != nil {
		return serviceError(c, err, "mark_read_failed")
	}
	return c.JSON(message.ToResponse())
}

type reactionInput struct {
	Reaction string `json:"reaction"`
}

func (h *MessageHandler) React(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messageID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || messageID == 0 {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	var input reactionInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if !validation.ValidateReaction(input.Reaction) {
		return httpx.BadRequest(c, "invalid_reaction", "Reaction must be a short non-empty string")
	}

	reaction, created, err := h.messageService.React(uint(messageID), userID, input.Reaction)
	if err != nil {
		return serviceError(c, err, "react_failed")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(reaction)
}

func (h *MessageHandler) ListReactions(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messageID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || messageID == 0 {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	reactions, err := h.messageService.Reactions(uint(messageID), userID)
	if err != nil {
		return serviceError(c, err, "list_reactions_failed")
	}
	return c.JSON(fiber.Map{"reactions": reactions})
}
