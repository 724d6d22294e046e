package server

import (
	"log"

	"github.com/dealdesk-io/dealdesk/internal/hooks"
	"github.com/dealdesk-io/dealdesk/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles the wired service graph.
type Services struct {
	Deals     services.DealService
	Changes   services.ChangeRequestService
	Deletes   services.DeleteRequestService
	Profits   services.ProfitService
	Payments  services.PaymentService
	Contracts services.ContractService
	Notifier  services.NotificationService
	Hooks     services.HookService
	Sequence  services.SequenceService
}

func InitializeServices(db *gorm.DB, provider services.PaymentProvider, generator services.ContractGenerator, logger *zap.Logger) *Services {
	notifier := services.NewNotificationService(db, logger)
	sequence := services.NewSequenceService(0)
	contracts := services.NewContractService(generator, sequence)
	deals := services.NewDealService(db, notifier)
	changes := services.NewChangeRequestService(db, notifier)
	deletes := services.NewDeleteRequestService(db, notifier)
	profits := services.NewProfitService(db, notifier)
	hookService := services.NewHookService()
	payments := services.NewPaymentService(db, provider, hookService)

	return &Services{
		Deals:     deals,
		Changes:   changes,
		Deletes:   deletes,
		Profits:   profits,
		Payments:  payments,
		Contracts: contracts,
		Notifier:  notifier,
		Hooks:     hookService,
		Sequence:  sequence,
	}
}

func RegisterHooks(db *gorm.DB, svc *Services) {
	activationHook := hooks.NewInvestmentActivationHook(db, svc.Contracts, svc.Notifier)
	settlementHook := hooks.NewChangeSettlementHook(db, svc.Contracts, svc.Notifier)
	payoutHook := hooks.NewProfitPayoutHook(db, svc.Notifier)

	if err := svc.Hooks.AddHook(activationHook); err != nil {
		log.Fatal("Failed to register activation hook:", err)
	}
	if err := svc.Hooks.AddHook(settlementHook); err != nil {
		log.Fatal("Failed to register change settlement hook:", err)
	}
	if err := svc.Hooks.AddHook(payoutHook); err != nil {
		log.Fatal("Failed to register profit payout hook:", err)
	}
}
