package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCodeAnyCase(t *testing.T) {
	for _, input := range []string{"WELCOME10", "welcome10", "Welcome10", "  welcome10  "} {
		code, effect, err := ResolveCode(input)
		require.NoError(t, err, input)
		assert.Equal(t, CodeWelcome10, code)
		assert.Equal(t, EffectPercentOff, effect.Kind)
		assert.Equal(t, 10.0, effect.Percent)
	}
}

func TestResolveCodeFreeShip(t *testing.T) {
	code, effect, err := ResolveCode("freeship")
	require.NoError(t, err)

	assert.Equal(t, CodeFreeShip, code)
	assert.Equal(t, EffectShippingWaiver, effect.Kind)
	assert.Equal(t, MethodStandard, effect.Method)
	// A waiver contributes nothing to the price discount.
	assert.Equal(t, 0.0, effect.DiscountPercent())
}

func TestResolveCodeRejections(t *testing.T) {
	_, _, err := ResolveCode("BOGUS")
	assert.ErrorIs(t, err, ErrUnknownCode)

	_, _, err = ResolveCode("")
	assert.ErrorIs(t, err, ErrEmptyCode)

	_, _, err = ResolveCode("   ")
	assert.ErrorIs(t, err, ErrEmptyCode)
}

func TestSessionApply(t *testing.T) {
	var session Session

	applied, err := session.Apply("welcome10")
	require.NoError(t, err)

	assert.Equal(t, CodeWelcome10, applied.AppliedCode)
	assert.Equal(t, 10.0, applied.DiscountPercent())
	assert.True(t, applied.Active())
}

func TestSessionApplyUnknownCodeLeavesState(t *testing.T) {
	session := Session{
		AppliedCode: CodeWelcome10,
		Effect:      Effect{Kind: EffectPercentOff, Percent: 10},
	}

	// An already-active session rejects any second code first.
	after, err := session.Apply("BOGUS")
	assert.ErrorIs(t, err, ErrCodeAlreadyApplied)
	assert.Equal(t, session, after)

	// A fresh session rejects unknown codes without activating anything.
	var fresh Session
	after, err = fresh.Apply("BOGUS")
	assert.ErrorIs(t, err, ErrUnknownCode)
	assert.False(t, after.Active())
	assert.Equal(t, 0.0, after.DiscountPercent())
}

func TestSessionApplySecondCodeRejected(t *testing.T) {
	var session Session

	session, err := session.Apply(CodeWelcome10)
	require.NoError(t, err)

	after, err := session.Apply(CodeFreeShip)
	assert.ErrorIs(t, err, ErrCodeAlreadyApplied)
	assert.Equal(t, CodeWelcome10, after.AppliedCode)
	assert.Equal(t, 10.0, after.DiscountPercent())
}

func TestSessionRemove(t *testing.T) {
	session := Session{
		AppliedCode: CodeFreeShip,
		Effect:      Effect{Kind: EffectShippingWaiver, Method: MethodStandard},
	}

	cleared := session.Remove()
	assert.False(t, cleared.Active())
	assert.Equal(t, 0.0, cleared.DiscountPercent())

	// Removal returns the session to the no-promo state entirely.
	applied, err := cleared.Apply(CodeWelcome10)
	require.NoError(t, err)
	assert.Equal(t, CodeWelcome10, applied.AppliedCode)
}
