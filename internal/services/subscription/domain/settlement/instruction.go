// Package settlement describes fund transfers the service hands to an external
// settlement layer. The service never executes them.
package settlement

import (
	"fmt"
	"strings"

	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/coin"
)

// Kind names the transfer mechanism.
type Kind string

// KindBankSend moves coins from the contract to an address.
const KindBankSend Kind = "bank_send"

// Instruction is one fund transfer to perform after a command succeeds.
type Instruction struct {
	Kind      Kind        `json:"kind"`
	ToAddress string      `json:"to_address"`
	Amount    []coin.Coin `json:"amount"`
}

// BankSend builds a transfer of coins to the recipient.
func BankSend(to string, coins ...coin.Coin) Instruction {
	amount := make([]coin.Coin, len(coins))
	copy(amount, coins)
	return Instruction{Kind: KindBankSend, ToAddress: to, Amount: amount}
}

// String renders the instruction for logs, e.g. "bank_send 5uatom to addr1".
func (i Instruction) String() string {
	parts := make([]string, len(i.Amount))
	for idx, c := range i.Amount {
		parts[idx] = c.String()
	}
	return fmt.Sprintf("%s %s to %s", i.Kind, strings.Join(parts, ","), i.ToAddress)
}
