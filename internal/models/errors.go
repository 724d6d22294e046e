package models

import "errors"

// Error taxonomy for the deal lifecycle core. Callers match with errors.Is;
// services wrap these with fmt.Errorf("...: %w", err) for context.
var (
	ErrDealNotFound    = errors.New("deal not found")
	ErrRequestNotFound = errors.New("request not found")
	ErrProfitNotFound  = errors.New("profit distribution not found")

	// ErrInvalidStateTransition is returned when a requested status change
	// violates the deal transition table, including any attempt to move a
	// deal out of a terminal state.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrConcurrentModification is returned when the optimistic-concurrency
	// version check fails. The caller should re-fetch and retry once.
	ErrConcurrentModification = errors.New("concurrent modification")

	ErrChangeRequestPending = errors.New("change request already pending")
	ErrDeleteRequestPending = errors.New("delete request already pending")
	ErrRequestNotPending    = errors.New("request is not pending")

	ErrDuplicatePeriod = errors.New("profit period overlaps an existing distribution")
	ErrDealNotActive   = errors.New("deal is not active")

	ErrPaymentNotProcessed     = errors.New("payment not processed")
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")

	ErrNotAuthorized = errors.New("caller is not authorized for this deal")

	// ErrInvalidTerms is returned when a deal's commercial terms fail
	// validation, such as a percentage outside [0,100].
	ErrInvalidTerms = errors.New("invalid deal terms")
)
