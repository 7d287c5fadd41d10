package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sevans717/aphila-sub007/internal/httpx"
	"github.com/sevans717/aphila-sub007/internal/service"
)

type MatchHandler struct {
	matchService *service.MatchService
}

func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type likeInput struct {
	LikedID uint `json:"liked_id"`
	IsSuper bool `json:"is_super"`
}

func (h *MatchHandler) Like(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input likeInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.LikedID == 0 {
		return httpx.BadRequest(c, "missing_liked_id", "liked_id is required")
	}

	result, err := h.matchService.Like(userID, input.LikedID, input.IsSuper)
	if err != nil {
		return serviceError(c, err, "like_failed")
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

func (h *MatchHandler) Unmatch(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	matchID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || matchID == 0 {
		return httpx.BadRequest(c, "invalid_match_id", "Invalid match id")
	}

	match, err := h.matchService.Unmatch(uint(matchID), userID)
	if err != nil {
		return serviceError(c, err, "unmatch_failed")
	}
	return c.JSON(match)
}

type blockInput struct {
	BlockedID uint `json:"blocked_id"`
}

func (h *MatchHandler) Block(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input blockInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.BlockedID == 0 {
		return httpx.BadRequest(c, "missing_blocked_id", "blocked_id is required")
	}

	block, err := h.matchService.Block(userID, input.BlockedID)
	if err != nil {
		return serviceError(c, err, "block_failed")
	}
	return c.Status(fiber.StatusCreated).JSON(block)
}

func (h *MatchHandler) ListMatches(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	matches, err := h.matchService.ListMatches(userID, limit)
	if err != nil {
		return httpx.Internal(c, "list_matches_failed")
	}
	return c.JSON(fiber.Map{"matches": matches})
}
