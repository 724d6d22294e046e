package api

import (
	"strconv"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/api/middleware"
	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/dealdesk-io/dealdesk/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CreateDealRequest struct {
	Title                 string  `json:"title" validate:"required"`
	Description           string  `json:"description"`
	CategoryID            uint    `json:"category_id" validate:"required"`
	InvestorID            *string `json:"investor_id"`
	OfferMoney            int64   `json:"offer_money" validate:"required,gt=0"`
	OfferDeal             float64 `json:"offer_deal" validate:"required,gte=0,lte=100"`
	ManufacturingCost     int64   `json:"manufacturing_cost" validate:"gte=0"`
	EstimatedPrice        int64   `json:"estimated_price" validate:"gte=0"`
	PlatformFeePercentage float64 `json:"platform_fee_percentage" validate:"gte=0,lte=100"`
	DurationMonths        int     `json:"duration_months" validate:"gte=0"`
	AutoRenew             bool    `json:"auto_renew"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (s *APIServer) dealIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid deal id")
	}
	return uint(id), nil
}

func (s *APIServer) handleCreateDeal(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)

	var req CreateDealRequest
	if err := s.parseAndValidate(c, &req); err != nil {
		return err
	}

	// Block a second concurrent deal between the same parties.
	if req.InvestorID != nil {
		active, err := s.deals.HasActiveDeal(user.ID, *req.InvestorID)
		if err != nil {
			return s.errorResponse(c, err)
		}
		if active {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "an active deal already exists between these parties",
			})
		}
	}

	fee := req.PlatformFeePercentage
	if fee == 0 {
		fee = 1
	}

	var endDate *time.Time
	if req.DurationMonths > 0 {
		d := time.Now().AddDate(0, req.DurationMonths, 0)
		endDate = &d
	}

	deal := &models.Deal{
		AuthorID:              user.ID,
		InvestorID:            req.InvestorID,
		CategoryID:            req.CategoryID,
		Title:                 req.Title,
		Description:           req.Description,
		OfferMoney:            req.OfferMoney,
		OfferDeal:             req.OfferDeal,
		ManufacturingCost:     req.ManufacturingCost,
		EstimatedPrice:        req.EstimatedPrice,
		PlatformFeePercentage: fee,
		DurationMonths:        req.DurationMonths,
		ScheduledEndDate:      endDate,
		AutoRenew:             req.AutoRenew,
		Status:                models.DealStatusProposed,
	}
	if err := s.deals.CreateDeal(deal); err != nil {
		return s.errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(deal)
}

func (s *APIServer) handleGetDeal(c *fiber.Ctx) error {
	id, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	deal, err := s.deals.GetDealDetail(id)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deal)
}

func (s *APIServer) handleDealByIntent(c *fiber.Ctx) error {
	deal, err := s.deals.GetDealByPaymentIntentID(c.Params("intent_id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deal)
}

func (s *APIServer) handleAcceptOffer(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	id, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	deal, err := s.deals.AcceptOffer(id, user.ID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deal)
}

func (s *APIServer) handleRejectDeal(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	id, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err := s.parseAndValidate(c, &req); err != nil {
		return err
	}
	deal, err := s.deals.RejectDeal(id, user.ID, req.Reason)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deal)
}

func (s *APIServer) handleApproveDeal(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	id, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	deal, err := s.deals.ApproveDeal(id, user.ID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deal)
}

func (s *APIServer) handleCompleteDeal(c *fiber.Ctx) error {
	id, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err := s.parseAndValidate(c, &req); err != nil {
		return err
	}
	deal, err := s.deals.CompleteDeal(id, req.Reason)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deal)
}

func (s *APIServer) handleTerminateDeal(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	id, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err := s.parseAndValidate(c, &req); err != nil {
		return err
	}
	deal, err := s.deals.TerminateDeal(id, user.ID, req.Reason)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deal)
}

func (s *APIServer) handleRequestInitialPayment(c *fiber.Ctx) error {
	id, err := s.dealIDParam(c)
	if err != nil {
		return err
	}
	intentID, err := s.payments.RequestInitialPayment(c.Context(), id)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"payment_intent_id": intentID})
}

func (s *APIServer) handleMyDeals(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	deals, err := s.deals.ListDealsByAuthor(user.ID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deals)
}

func (s *APIServer) handleMyInvestments(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	deals, err := s.deals.ListDealsByInvestor(user.ID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deals)
}

func (s *APIServer) handleMyActiveInvestments(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	deals, err := s.deals.ListActiveDealsByInvestor(user.ID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deals)
}

func (s *APIServer) handleListDealsByApproval(c *fiber.Ctx) error {
	approved := c.QueryBool("approved", true)
	opts := services.ListDealsOptions{
		Skip:       c.QueryInt("skip", 0),
		Limit:      c.QueryInt("limit", 20),
		SortBy:     services.DealSortField(c.Query("sort", string(services.DealSortCreatedAt))),
		Descending: c.QueryBool("desc", true),
	}

	deals, total, err := s.deals.ListDealsByApprovalState(approved, opts)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"deals": deals, "total": total})
}

func (s *APIServer) handlePendingApproval(c *fiber.Ctx) error {
	deals, err := s.deals.ListDealsPendingApproval()
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deals)
}

func (s *APIServer) handleReadyForProduct(c *fiber.Ctx) error {
	deals, err := s.deals.ListDealsReadyForProduct()
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deals)
}

func (s *APIServer) handleDealsEnding(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	deals, err := s.deals.ListDealsEndingWithin(c.Context(), days)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deals)
}

func (s *APIServer) handleDealsEndedToday(c *fiber.Ctx) error {
	deals, err := s.deals.ListDealsEndedToday(c.Context(), time.Now())
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(deals)
}
