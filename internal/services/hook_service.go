package services

import (
	"github.com/dealdesk-io/dealdesk/internal/models"
)

type HookService interface {
	AddHook(hook Hook) error
	OnPaymentConfirmed(purpose models.PaymentPurpose, intentID string) error
}

type hookService struct {
	hooks []Hook
}

func NewHookService() HookService {
	return &hookService{
		hooks: []Hook{},
	}
}

func (h *hookService) AddHook(hook Hook) error {
	h.hooks = append(h.hooks, hook)
	return nil
}

func (h *hookService) OnPaymentConfirmed(purpose models.PaymentPurpose, intentID string) error {
	for _, hook := range h.hooks {
		if hook.CanHandle(purpose) {
			if err := hook.OnPaymentConfirmed(purpose, intentID); err != nil {
				return err
			}
		}
	}
	return nil
}
