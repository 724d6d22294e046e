package services_test

import (
	"fmt"
	"testing"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/dealdesk-io/dealdesk/internal/services"
	"github.com/stretchr/testify/suite"
)

// mockHook implements the Hook interface for testing
type mockHook struct {
	name              string
	supportedPurposes []models.PaymentPurpose
	callCount         int
	lastPurpose       models.PaymentPurpose
	lastIntentID      string
	shouldError       bool
	errorMessage      string
}

func newMockHook(name string, supportedPurposes ...models.PaymentPurpose) *mockHook {
	return &mockHook{
		name:              name,
		supportedPurposes: supportedPurposes,
	}
}

func (m *mockHook) CanHandle(purpose models.PaymentPurpose) bool {
	for _, supported := range m.supportedPurposes {
		if supported == purpose {
			return true
		}
	}
	return false
}

func (m *mockHook) OnPaymentConfirmed(purpose models.PaymentPurpose, intentID string) error {
	m.callCount++
	m.lastPurpose = purpose
	m.lastIntentID = intentID

	if m.shouldError {
		return fmt.Errorf("%s", m.errorMessage)
	}
	return nil
}

func (m *mockHook) reset() {
	m.callCount = 0
	m.lastPurpose = ""
	m.lastIntentID = ""
	m.shouldError = false
	m.errorMessage = ""
}

func (m *mockHook) setError(shouldError bool, message string) {
	m.shouldError = shouldError
	m.errorMessage = message
}

type HookServiceTestSuite struct {
	suite.Suite
	hookService    services.HookService
	investmentHook *mockHook
	settlementHook *mockHook
	payoutHook     *mockHook
}

func (suite *HookServiceTestSuite) SetupTest() {
	suite.hookService = services.NewHookService()
	suite.investmentHook = newMockHook("investment", models.PaymentPurposeInitialInvestment)
	suite.settlementHook = newMockHook("settlement",
		models.PaymentPurposeChangeSettlement, models.PaymentPurposeChangeRefund)
	suite.payoutHook = newMockHook("payout", models.PaymentPurposeProfitPayout)

	suite.Require().NoError(suite.hookService.AddHook(suite.investmentHook))
	suite.Require().NoError(suite.hookService.AddHook(suite.settlementHook))
	suite.Require().NoError(suite.hookService.AddHook(suite.payoutHook))
}

func (suite *HookServiceTestSuite) TestDispatchesToMatchingHookOnly() {
	err := suite.hookService.OnPaymentConfirmed(models.PaymentPurposeInitialInvestment, "pi_123")
	suite.NoError(err)

	suite.Equal(1, suite.investmentHook.callCount)
	suite.Equal(models.PaymentPurposeInitialInvestment, suite.investmentHook.lastPurpose)
	suite.Equal("pi_123", suite.investmentHook.lastIntentID)
	suite.Equal(0, suite.settlementHook.callCount)
	suite.Equal(0, suite.payoutHook.callCount)
}

func (suite *HookServiceTestSuite) TestMultiPurposeHook() {
	err := suite.hookService.OnPaymentConfirmed(models.PaymentPurposeChangeSettlement, "pi_456")
	suite.NoError(err)
	err = suite.hookService.OnPaymentConfirmed(models.PaymentPurposeChangeRefund, "re_789")
	suite.NoError(err)

	suite.Equal(2, suite.settlementHook.callCount)
	suite.Equal(models.PaymentPurposeChangeRefund, suite.settlementHook.lastPurpose)
	suite.Equal("re_789", suite.settlementHook.lastIntentID)
	suite.Equal(0, suite.investmentHook.callCount)
}

func (suite *HookServiceTestSuite) TestNoMatchingHookIsNoop() {
	empty := services.NewHookService()
	suite.NoError(empty.OnPaymentConfirmed(models.PaymentPurposeProfitPayout, "pi_000"))
}

func (suite *HookServiceTestSuite) TestHookErrorPropagates() {
	suite.payoutHook.setError(true, "payout ledger write failed")

	err := suite.hookService.OnPaymentConfirmed(models.PaymentPurposeProfitPayout, "pi_999")
	suite.Error(err)
	suite.Contains(err.Error(), "payout ledger write failed")
}

func (suite *HookServiceTestSuite) TestAllMatchingHooksRun() {
	secondPayout := newMockHook("payout-audit", models.PaymentPurposeProfitPayout)
	suite.Require().NoError(suite.hookService.AddHook(secondPayout))

	err := suite.hookService.OnPaymentConfirmed(models.PaymentPurposeProfitPayout, "pi_multi")
	suite.NoError(err)
	suite.Equal(1, suite.payoutHook.callCount)
	suite.Equal(1, secondPayout.callCount)
}

func (suite *HookServiceTestSuite) TestResetBetweenRuns() {
	suite.NoError(suite.hookService.OnPaymentConfirmed(models.PaymentPurposeInitialInvestment, "pi_1"))
	suite.investmentHook.reset()
	suite.Equal(0, suite.investmentHook.callCount)
	suite.Empty(suite.investmentHook.lastIntentID)
}

func TestHookServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HookServiceTestSuite))
}
