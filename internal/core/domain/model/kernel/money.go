package kernel

import (
	"encoding/json"
	"fmt"
	"strings"

	"waterdist/internal/pkg/errs"
	"waterdist/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// ErrMoneyIsNotConstructed is returned when Money was not created via a constructor.
var ErrMoneyIsNotConstructed = errs.NewValueIsRequiredError("money must be created via NewMoney or MoneyFromString")

// Money is a non-negative amount rounded to two decimal places.
type Money struct {
	amount decimal.Decimal
	guard  guard.ConstructorGuard
}

// NewMoney rounds amount to cents and rejects negative values.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money",
			fmt.Errorf("%s is negative", amount.String()))
	}
	return Money{amount: amount.Round(2), guard: guard.NewConstructorGuard()}, nil
}

// MoneyFromString parses a decimal string such as "149.90". An empty string is zero.
func MoneyFromString(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewMoney(decimal.Zero)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money", err)
	}
	return NewMoney(d)
}

// ZeroMoney returns 0.00.
func ZeroMoney() Money {
	return Money{amount: decimal.Zero, guard: guard.NewConstructorGuard()}
}

// Validate reports whether the value was built by a constructor.
func (m Money) Validate() error {
	return m.guard.Validate(ErrMoneyIsNotConstructed)
}

// Decimal exposes the amount for persistence and arithmetic.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// String formats the amount with exactly two decimals.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

// MarshalJSON renders the amount as a two-decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
