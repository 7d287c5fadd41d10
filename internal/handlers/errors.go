package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sevans717/aphila-sub007/internal/httpx"
	"github.com/sevans717/aphila-sub007/internal/service"
)

// serviceError maps service sentinels onto the HTTP error surface. Anything
// unmapped is a persistence failure and surfaces as 500.
func serviceError(c *fiber.Ctx, err error, fallbackCode string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return httpx.NotFound(c, "not_found", "Entity not found")
	case errors.Is(err, service.ErrSelfAction):
		return httpx.BadRequest(c, "self_action", "Cannot target yourself")
	case errors.Is(err, service.ErrBlocked):
		return httpx.Forbidden(c, "blocked", "Interaction between these users is blocked")
	case errors.Is(err, service.ErrNotAParty):
		return httpx.Forbidden(c, "not_a_party", "You are not a party to this match")
	case errors.Is(err, service.ErrMatchNotActive):
		return httpx.BadRequest(c, "match_not_active", "Match is not active")
	case errors.Is(err, service.ErrInvalidParent):
		return httpx.BadRequest(c, "invalid_parent", "Parent message does not belong to this match")
	case errors.Is(err, service.ErrNotReceiver):
		return httpx.Forbidden(c, "not_receiver", "Only the receiver may do this")
	case errors.Is(err, service.ErrMissingNonce):
		return httpx.BadRequest(c, "missing_client_nonce", "client_nonce is required")
	default:
		return httpx.Internal(c, fallbackCode)
	}
}
