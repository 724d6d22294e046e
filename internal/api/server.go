package api

import (
	"errors"

	"github.com/dealdesk-io/dealdesk/internal/api/middleware"
	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/dealdesk-io/dealdesk/internal/services"
	"github.com/dealdesk-io/dealdesk/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

type APIServer struct {
	app       *fiber.App
	validate  *validator.Validate
	logger    *zap.Logger
	auth      *utils.JwtAuthenticator
	deals     services.DealService
	changes   services.ChangeRequestService
	deletes   services.DeleteRequestService
	profits   services.ProfitService
	payments  services.PaymentService
	notifier  services.NotificationService
}

type ServerDeps struct {
	Auth     *utils.JwtAuthenticator
	Deals    services.DealService
	Changes  services.ChangeRequestService
	Deletes  services.DeleteRequestService
	Profits  services.ProfitService
	Payments services.PaymentService
	Notifier services.NotificationService
	Logger   *zap.Logger
}

func NewAPIServer(deps ServerDeps) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Add middleware
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	server := &APIServer{
		app:      app,
		validate: validator.New(),
		logger:   deps.Logger,
		auth:     deps.Auth,
		deals:    deps.Deals,
		changes:  deps.Changes,
		deletes:  deps.Deletes,
		profits:  deps.Profits,
		payments: deps.Payments,
		notifier: deps.Notifier,
	}
	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	authRequired := middleware.AuthMiddleware(middleware.AuthConfig{Authenticator: s.auth})
	adminOnly := middleware.RequireAdmin()

	api := s.app.Group("/api")

	// Deal lifecycle
	api.Post("/deals", authRequired, s.handleCreateDeal)
	api.Get("/deals/:id", authRequired, s.handleGetDeal)
	api.Post("/deals/:id/accept", authRequired, s.handleAcceptOffer)
	api.Post("/deals/:id/reject", authRequired, s.handleRejectDeal)
	api.Post("/deals/:id/approve", authRequired, adminOnly, s.handleApproveDeal)
	api.Post("/deals/:id/complete", authRequired, adminOnly, s.handleCompleteDeal)
	api.Post("/deals/:id/terminate", authRequired, s.handleTerminateDeal)
	api.Post("/deals/:id/payment", authRequired, s.handleRequestInitialPayment)

	// Reporting surface
	api.Get("/my/deals", authRequired, s.handleMyDeals)
	api.Get("/my/investments", authRequired, s.handleMyInvestments)
	api.Get("/my/investments/active", authRequired, s.handleMyActiveInvestments)
	api.Get("/my/profit-total", authRequired, s.handleMyProfitTotal)
	api.Get("/admin/deals", authRequired, adminOnly, s.handleListDealsByApproval)
	api.Get("/admin/deals/pending", authRequired, adminOnly, s.handlePendingApproval)
	api.Get("/admin/deals/ready-for-product", authRequired, adminOnly, s.handleReadyForProduct)
	api.Get("/admin/deals/ending", authRequired, adminOnly, s.handleDealsEnding)
	api.Get("/admin/deals/ended-today", authRequired, adminOnly, s.handleDealsEndedToday)
	api.Get("/admin/deals/by-intent/:intent_id", authRequired, adminOnly, s.handleDealByIntent)

	// Change / delete request workflow
	api.Post("/deals/:id/change-requests", authRequired, s.handleProposeChange)
	api.Get("/deals/:id/change-requests/pending", authRequired, s.handlePendingChangeRequest)
	api.Get("/change-requests/:id", authRequired, s.handleGetChangeRequest)
	api.Post("/change-requests/:id/respond", authRequired, s.handleRespondChangeRequest)
	api.Post("/deals/:id/change-settlement", authRequired, s.handleRequestChangeSettlement)
	api.Post("/deals/:id/delete-requests", authRequired, s.handleProposeDelete)
	api.Post("/delete-requests/:id/respond", authRequired, s.handleRespondDeleteRequest)

	// Profit ledger
	api.Post("/deals/:id/profits", authRequired, s.handleRecordProfit)
	api.Get("/deals/:id/profits", authRequired, s.handleListProfits)
	api.Get("/deals/:id/profits/latest", authRequired, s.handleLatestProfit)
	api.Get("/deals/:id/profit-summary", authRequired, s.handleDealProfitSummary)
	api.Post("/profits/:id/payout", authRequired, s.handleRequestPayout)

	// Messages
	api.Get("/deals/:id/messages", authRequired, s.handleDealMessages)
	api.Get("/my/messages/unread", authRequired, s.handleMyUnreadMessages)
	api.Post("/messages/:id/read", authRequired, s.handleMarkMessageRead)

	// Payment webhook (authenticated by the processor's delivery channel,
	// idempotent on redelivery)
	api.Post("/webhooks/payment", s.handlePaymentWebhook)

	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
}

// Start starts the server on the given port
func (s *APIServer) Start(port string) error {
	return s.app.Listen(":" + port)
}

// Shutdown gracefully shuts down the server
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *APIServer) App() *fiber.App {
	return s.app
}

// errorResponse maps the core error taxonomy onto HTTP statuses.
func (s *APIServer) errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrDealNotFound),
		errors.Is(err, models.ErrRequestNotFound),
		errors.Is(err, models.ErrProfitNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, models.ErrNotAuthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, models.ErrInvalidTerms):
		status = fiber.StatusBadRequest
	case errors.Is(err, models.ErrInvalidStateTransition),
		errors.Is(err, models.ErrConcurrentModification),
		errors.Is(err, models.ErrChangeRequestPending),
		errors.Is(err, models.ErrDeleteRequestPending),
		errors.Is(err, models.ErrRequestNotPending),
		errors.Is(err, models.ErrDuplicatePeriod),
		errors.Is(err, models.ErrDealNotActive),
		errors.Is(err, models.ErrPaymentAlreadyProcessed):
		status = fiber.StatusConflict
	case errors.Is(err, models.ErrPaymentNotProcessed):
		status = fiber.StatusPaymentRequired
	}

	if status == fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (s *APIServer) parseAndValidate(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
