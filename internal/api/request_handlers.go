package api

import (
	"strconv"

	"github.com/dealdesk-io/dealdesk/internal/api/middleware"
	"github.com/dealdesk-io/dealdesk/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProposeChangeRequest struct {
	Changes services.DealChangeValues `json:"changes" validate:"required"`
	Notes   string                    `json:"notes"`
}

type RespondRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

type ProposeDeleteRequest struct {
	Reason string `json:"reason"`
}

func (s *APIServer) requestIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid request id")
	}
	return uint(id), nil
}

func (s *APIServer) handleProposeChange(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	dealID, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	var req ProposeChangeRequest
	if err := s.parseAndValidate(c, &req); err != nil {
		return err
	}

	request, err := s.changes.ProposeChange(dealID, user.ID, req.Changes, req.Notes)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

func (s *APIServer) handlePendingChangeRequest(c *fiber.Ctx) error {
	dealID, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	request, err := s.changes.GetPendingRequestForDeal(dealID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(request)
}

func (s *APIServer) handleGetChangeRequest(c *fiber.Ctx) error {
	requestID, err := s.requestIDParam(c)
	if err != nil {
		return err
	}
	request, err := s.changes.GetChangeRequestByID(requestID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(request)
}

func (s *APIServer) handleRespondChangeRequest(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	requestID, err := s.requestIDParam(c)
	if err != nil {
		return err
	}
	var req RespondRequest
	if err := s.parseAndValidate(c, &req); err != nil {
		return err
	}

	request, err := s.changes.RespondToChangeRequest(requestID, user.ID, req.Approve, req.Reason)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(request)
}

func (s *APIServer) handleRequestChangeSettlement(c *fiber.Ctx) error {
	dealID, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	intentID, err := s.payments.RequestChangeSettlement(c.Context(), dealID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"change_payment_intent_id": intentID})
}

func (s *APIServer) handleProposeDelete(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	dealID, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	var req ProposeDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	request, err := s.deletes.ProposeDelete(dealID, user.ID, req.Reason)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

func (s *APIServer) handleRespondDeleteRequest(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	requestID, err := s.requestIDParam(c)
	if err != nil {
		return err
	}
	var req RespondRequest
	if err := s.parseAndValidate(c, &req); err != nil {
		return err
	}

	request, err := s.deletes.RespondToDeleteRequest(requestID, user.ID, req.Approve, req.Reason)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(request)
}
