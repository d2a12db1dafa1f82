package payment

import (
	"errors"
	"testing"

	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/coin"
)

func TestOptionValidate(t *testing.T) {
	tests := []struct {
		name   string
		option Option
		want   error
	}{
		{name: "complete", option: Option{SubscriptionDurationDays: 30, Price: coin.New("uatom", coin.NewAmount(10))}},
		{name: "zero price allowed", option: Option{SubscriptionDurationDays: 7, Price: coin.New("uatom", coin.Zero)}},
		{name: "missing denom", option: Option{SubscriptionDurationDays: 30, Price: coin.New(" ", coin.NewAmount(10))}, want: ErrDenomRequired},
		{name: "zero duration", option: Option{Price: coin.New("uatom", coin.NewAmount(10))}, want: ErrDurationRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.option.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestOptionKeyDistinguishesFullValue(t *testing.T) {
	base := Option{SubscriptionDurationDays: 30, Price: coin.New("uatom", coin.NewAmount(10))}
	variants := []Option{
		{SubscriptionDurationDays: 31, Price: base.Price},
		{SubscriptionDurationDays: 30, Price: coin.New("uosmo", coin.NewAmount(10))},
		{SubscriptionDurationDays: 30, Price: coin.New("uatom", coin.NewAmount(11))},
	}
	for _, v := range variants {
		if v.Key() == base.Key() {
			t.Fatalf("Key(%v) collides with Key(%v)", v, base)
		}
	}
	if got := base.Key(); got != "30/10/uatom" {
		t.Fatalf("Key() = %q", got)
	}
}

func TestOptionComparableByValue(t *testing.T) {
	a := Option{SubscriptionDurationDays: 30, Price: coin.New("uatom", coin.MustParseAmount("10"))}
	b := Option{SubscriptionDurationDays: 30, Price: coin.New("uatom", coin.NewAmount(10))}
	if a != b {
		t.Fatal("expected equal options")
	}
}
