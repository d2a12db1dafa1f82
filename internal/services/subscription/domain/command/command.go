package command

import "github.com/fruitbox12/Subscription/internal/services/subscription/domain/payment"

// Type identifies the command type string.
type Type string

const (
	// TypeWithdraw moves funds held by the contract to a beneficiary.
	TypeWithdraw Type = "admin.withdraw"
	// TypeAddSubscriptionOption offers a new payment option.
	TypeAddSubscriptionOption Type = "admin.subscription_option.add"
	// TypeRemoveSubscriptionOption withdraws a payment option.
	TypeRemoveSubscriptionOption Type = "admin.subscription_option.remove"
)

// Command is one of Withdraw, AddSubscriptionOption or
// RemoveSubscriptionOption.
type Command interface {
	CommandType() Type
	sealed()
}

// Withdraw asks for amount of denom to be sent to beneficiary.
type Withdraw struct {
	Denom       string
	Amount      string
	Beneficiary string
}

// AddSubscriptionOption inserts Option into the offered set.
type AddSubscriptionOption struct {
	Option payment.Option
}

// RemoveSubscriptionOption deletes the option equal to Option.
type RemoveSubscriptionOption struct {
	Option payment.Option
}

func (Withdraw) CommandType() Type                 { return TypeWithdraw }
func (AddSubscriptionOption) CommandType() Type    { return TypeAddSubscriptionOption }
func (RemoveSubscriptionOption) CommandType() Type { return TypeRemoveSubscriptionOption }

func (Withdraw) sealed()                 {}
func (AddSubscriptionOption) sealed()    {}
func (RemoveSubscriptionOption) sealed() {}
