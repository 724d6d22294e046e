package api

import (
	"time"

	"github.com/dealdesk-io/dealdesk/internal/api/middleware"
	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

type RecordProfitRequest struct {
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required"`
	TotalRevenue      int64     `json:"total_revenue" validate:"gte=0"`
	ManufacturingCost int64     `json:"manufacturing_cost" validate:"gte=0"`
	OtherCosts        int64     `json:"other_costs" validate:"gte=0"`
}

func (s *APIServer) handleRecordProfit(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	dealID, err := s.dealIDParam(c)
	if err != nil {
		return err
	}

	// Only the business owner reports revenue for their deal.
	if !user.IsAdmin() {
		deal, err := s.deals.GetDealByID(dealID)
		if err != nil {
			return s.errorResponse(c, err)
		}
		if deal.AuthorID != user.ID {
			return s.errorResponse(c, models.ErrNotAuthorized)
		}
	}

	var req RecordProfitRequest
	if err := s.parseAndValidate(c, &req); err != nil {
		return err
	}

	profit, err := s.profits.RecordProfit(dealID, req.StartDate, req.EndDate,
		req.TotalRevenue, req.ManufacturingCost, req.OtherCosts)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profit)
}

func (s *APIServer) handleListProfits(c *fiber.Ctx) error {
	dealID, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	profits, err := s.profits.ListDistributions(dealID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(profits)
}

func (s *APIServer) handleLatestProfit(c *fiber.Ctx) error {
	dealID, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	profit, err := s.profits.LatestDistribution(dealID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(profit)
}

func (s *APIServer) handleRequestPayout(c *fiber.Ctx) error {
	profitID, err := s.requestIDParam(c)
	if err != nil {
		return err
	}
	intentID, err := s.payments.RequestProfitPayout(c.Context(), profitID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"payout_intent_id": intentID})
}

func (s *APIServer) handleDealProfitSummary(c *fiber.Ctx) error {
	dealID, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	investor, err := s.profits.InvestorProfitForDeal(dealID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	owner, err := s.profits.OwnerProfitForDeal(dealID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"investor_share": investor,
		"owner_share":    owner,
	})
}

func (s *APIServer) handleMyProfitTotal(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)

	invested, err := s.profits.TotalInvestorProfit(user.ID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	owned, err := s.profits.TotalOwnerProfit(user.ID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"investor_total": invested,
		"owner_total":    owned,
	})
}
