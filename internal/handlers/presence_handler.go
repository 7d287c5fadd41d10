package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sevans717/aphila-sub007/internal/httpx"
	"github.com/sevans717/aphila-sub007/internal/presence"
	"github.com/sevans717/aphila-sub007/internal/validation"
)

type PresenceHandler struct {
	tracker *presence.Tracker
}

func NewPresenceHandler(tracker *presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

// Get reports the live snapshot for a user. Unknown users read as offline
// rather than 404: absence of state is a valid presence answer.
func (h *PresenceHandler) Get(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	targetID, err := strconv.ParseUint(c.Params("user_id"), 10, 32)
	if err != nil || targetID == 0 {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	snapshot := h.tracker.Get(uint(targetID))
	return c.JSON(snapshot)
}

type activityInput struct {
	Type     string `json:"activity_type"`
	TargetID *uint  `json:"target_id,omitempty"`
}

func (h *PresenceHandler) StartActivity(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input activityInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if !validation.ValidateActivityType(input.Type) {
		return httpx.BadRequest(c, "invalid_activity_type", "activity_type must be typing or viewing")
	}

	h.tracker.Touch(userID, input.Type, input.TargetID)
	return c.JSON(h.tracker.Get(userID))
}

func (h *PresenceHandler) EndActivity(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	activityType := c.Params("type")
	if !validation.ValidateActivityType(activityType) {
		return httpx.BadRequest(c, "invalid_activity_type", "activity_type must be typing or viewing")
	}

	h.tracker.EndActivity(userID, activityType)
	return c.SendStatus(fiber.StatusNoContent)
}
