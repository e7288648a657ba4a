package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanProceed_CardAlwaysPasses(t *testing.T) {
	require.NoError(t, CanProceed(100000, PaymentMethodCard, 0))
	require.NoError(t, CanProceed(0, PaymentMethodCard, 0))
}

func TestCanProceed_WalletNeedsFullBalance(t *testing.T) {
	assert.NoError(t, CanProceed(50000, PaymentMethodWallet, 50000))
	assert.NoError(t, CanProceed(50000, PaymentMethodWallet, 80000))
	assert.ErrorIs(t, CanProceed(50000, PaymentMethodWallet, 49999), ErrWalletBalanceTooLow)
}

func TestCanProceed_UnknownMethod(t *testing.T) {
	assert.ErrorIs(t, CanProceed(100, PaymentMethod("bank_transfer"), 0), ErrUnknownPaymentMethod)
}

func TestFlow_HappyPath(t *testing.T) {
	sut := NewFlow()

	require.NoError(t, sut.Transition(StateValidatingCoupon))
	require.NoError(t, sut.Transition(StatePricing))
	require.NoError(t, sut.Transition(StateGateCheck))
	require.NoError(t, sut.Transition(StateSubmitting))
	require.NoError(t, sut.Transition(StateSuccess))

	assert.True(t, sut.Terminal())
}

func TestFlow_NoCouponSkipsValidation(t *testing.T) {
	sut := NewFlow()

	require.NoError(t, sut.Transition(StatePricing))
	assert.Equal(t, StatePricing, sut.State())
}

func TestFlow_RejectsInvalidTransition(t *testing.T) {
	sut := NewFlow()

	err := sut.Transition(StateSubmitting)

	require.Error(t, err)
	assert.Equal(t, StateIdle, sut.State())
}

func TestFlow_FailedIsRecoverable(t *testing.T) {
	sut := NewFlow()
	require.NoError(t, sut.Transition(StatePricing))
	require.NoError(t, sut.Transition(StateGateCheck))

	sut.Fail(ErrWalletBalanceTooLow)
	assert.Equal(t, StateFailed, sut.State())
	assert.ErrorIs(t, sut.Err(), ErrWalletBalanceTooLow)

	// The shopper tops up and retries the flow
	require.NoError(t, sut.Transition(StatePricing))
	assert.NoError(t, sut.Err())
	require.NoError(t, sut.Transition(StateGateCheck))
	require.NoError(t, sut.Transition(StateSubmitting))
	require.NoError(t, sut.Transition(StateSuccess))
}

func TestFlow_SuccessIsTerminal(t *testing.T) {
	sut := NewFlow()
	require.NoError(t, sut.Transition(StatePricing))
	require.NoError(t, sut.Transition(StateGateCheck))
	require.NoError(t, sut.Transition(StateSubmitting))
	require.NoError(t, sut.Transition(StateSuccess))

	assert.Error(t, sut.Transition(StateIdle))
}
