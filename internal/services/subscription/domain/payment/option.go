// Package payment defines the subscription payment options a contract admin
// offers.
package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/coin"
)

var (
	// ErrDenomRequired indicates an option without a price denomination.
	ErrDenomRequired = errors.New("price denom is required")
	// ErrDurationRequired indicates an option with a zero subscription duration.
	ErrDurationRequired = errors.New("subscription duration days must be positive")
)

// Option is a purchasable subscription: a duration paired with the price for
// it. Options are identified by their full value.
type Option struct {
	SubscriptionDurationDays uint64    `json:"subscription_duration_days"`
	Price                    coin.Coin `json:"price"`
}

// Validate reports whether every field needed to identify the option is set.
func (o Option) Validate() error {
	if strings.TrimSpace(o.Price.Denom) == "" {
		return ErrDenomRequired
	}
	if o.SubscriptionDurationDays == 0 {
		return ErrDurationRequired
	}
	return nil
}

// Key returns the canonical identity used by stores.
func (o Option) Key() string {
	return strconv.FormatUint(o.SubscriptionDurationDays, 10) + "/" + o.Price.Amount.String() + "/" + o.Price.Denom
}

// String renders the option for logs.
func (o Option) String() string {
	return fmt.Sprintf("%dd for %s", o.SubscriptionDurationDays, o.Price)
}
