package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sevans717/aphila-sub007/internal/httpx"
	"github.com/sevans717/aphila-sub007/internal/service"
	"github.com/sevans717/aphila-sub007/internal/validation"
)

type DeviceHandler struct {
	deviceService *service.DeviceService
}

func NewDeviceHandler(deviceService *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

type registerDeviceInput struct {
	DeviceID string `json:"device_id"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (h *DeviceHandler) Register(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input registerDeviceInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if !validation.ValidateDeviceID(input.DeviceID) {
		return httpx.BadRequest(c, "invalid_device_id", "device_id must be 1-64 url-safe characters")
	}
	if input.Token == "" {
		return httpx.BadRequest(c, "missing_token", "token is required")
	}
	if !validation.ValidatePlatform(input.Platform) {
		return httpx.BadRequest(c, "invalid_platform", "platform must be web, ios or android")
	}

	device, err := h.deviceService.RegisterDevice(userID, input.DeviceID, input.Token, validation.NormalizePlatform(input.Platform))
	if err != nil {
		return serviceError(c, err, "register_device_failed")
	}
	return c.Status(fiber.StatusCreated).JSON(device)
}

type topicInput struct {
	Topic string `json:"topic"`
}

func (h *DeviceHandler) SubscribeTopic(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	deviceID := c.Params("device_id")
	if !validation.ValidateDeviceID(deviceID) {
		return httpx.BadRequest(c, "invalid_device_id", "Invalid device id")
	}

	var input topicInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if !validation.ValidateTopic(input.Topic) {
		return httpx.BadRequest(c, "invalid_topic", "Topic must be a lowercase slug up to 64 characters")
	}

	subscription, created, err := h.deviceService.SubscribeTopic(userID, deviceID, input.Topic)
	if err != nil {
		return serviceError(c, err, "subscribe_topic_failed")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(subscription)
}

func (h *DeviceHandler) UnsubscribeTopic(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	deviceID := c.Params("device_id")
	if !validation.ValidateDeviceID(deviceID) {
		return httpx.BadRequest(c, "invalid_device_id", "Invalid device id")
	}
	topic := c.Params("topic")
	if !validation.ValidateTopic(topic) {
		return httpx.BadRequest(c, "invalid_topic", "Invalid topic")
	}

	if err := h.deviceService.UnsubscribeTopic(userID, deviceID, topic); err != nil {
		return serviceError(c, err, "unsubscribe_topic_failed")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
