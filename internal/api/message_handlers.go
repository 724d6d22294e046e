package api

import (
	"strconv"

	"github.com/dealdesk-io/dealdesk/internal/api/middleware"
	"github.com/gofiber/fiber/v2"
)

func (s *APIServer) handleDealMessages(c *fiber.Ctx) error {
	dealID, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	messages, err := s.notifier.ListMessagesForDeal(dealID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(messages)
}

func (s *APIServer) handleMyUnreadMessages(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	messages, err := s.notifier.ListUnreadForUser(user.ID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(messages)
}

func (s *APIServer) handleMarkMessageRead(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid message id")
	}
	if err := s.notifier.MarkRead(uint(id)); err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
