package pricing

import (
	"errors"
	"strings"
)

// Recognized promo codes
const (
	CodeWelcome10 = "WELCOME10"
	CodeFreeShip  = "FREESHIP"
)

// Promo application errors
var (
	ErrEmptyCode          = errors.New("promo code is empty")
	ErrUnknownCode        = errors.New("promo code is not recognized")
	ErrCodeAlreadyApplied = errors.New("a promo code is already applied, remove it first")
)

// EffectKind distinguishes what a promo code does
type EffectKind string

const (
	EffectPercentOff     EffectKind = "PERCENT_OFF"
	EffectShippingWaiver EffectKind = "SHIPPING_WAIVER"
)

// Effect describes what applying a code grants. A shipping waiver
// carries the method it waives; a percentage discount carries its
// percent. The code's identity is tracked separately in Session, so a
// waiver is "no discount" rather than "a discount of 0%".
type Effect struct {
	Kind    EffectKind `json:"kind"`
	Percent float64    `json:"percent,omitempty"`
	Method  string     `json:"method,omitempty"`
}

// DiscountPercent returns the percentage this effect contributes to
// the price calculation. Shipping waivers contribute nothing.
func (e Effect) DiscountPercent() float64 {
	if e.Kind == EffectPercentOff {
		return e.Percent
	}
	return 0
}

// promoTable maps normalized codes to their effects. Adding a code
// here is the whole change; the calculation logic never enumerates
// codes.
var promoTable = map[string]Effect{
	CodeWelcome10: {Kind: EffectPercentOff, Percent: 10},
	CodeFreeShip:  {Kind: EffectShippingWaiver, Method: MethodStandard},
}

// NormalizeCode canonicalizes user promo input for table lookup
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ResolveCode validates a user-entered code against the promo table
func ResolveCode(code string) (string, Effect, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return "", Effect{}, ErrEmptyCode
	}

	effect, ok := promoTable[normalized]
	if !ok {
		return "", Effect{}, ErrUnknownCode
	}
	return normalized, effect, nil
}

// waiverApplies reports whether the code's effect waives shipping for
// the given method. The lookup keeps the calculation table-driven:
// adding a waiver code never touches the pricing logic.
func waiverApplies(code, method string) bool {
	effect, ok := promoTable[NormalizeCode(code)]
	return ok && effect.Kind == EffectShippingWaiver && effect.Method == method
}

// Session tracks the promo state of one checkout session. At most one
// code is active at a time; applying a second is rejected, not
// silently replaced.
type Session struct {
	AppliedCode string `json:"applied_code,omitempty"`
	Effect      Effect `json:"effect,omitempty"`
}

// Active reports whether a code is currently applied
func (s Session) Active() bool {
	return s.AppliedCode != ""
}

// Apply validates and activates a code, returning the updated session.
// On rejection the session is returned unchanged.
func (s Session) Apply(code string) (Session, error) {
	if s.Active() {
		return s, ErrCodeAlreadyApplied
	}

	normalized, effect, err := ResolveCode(code)
	if err != nil {
		return s, err
	}

	return Session{AppliedCode: normalized, Effect: effect}, nil
}

// Remove clears the applied code and its effect, returning pricing to
// the no-promo state.
func (s Session) Remove() Session {
	return Session{}
}

// DiscountPercent is the percentage the active code contributes, zero
// when no code is applied.
func (s Session) DiscountPercent() float64 {
	if !s.Active() {
		return 0
	}
	return s.Effect.DiscountPercent()
}
