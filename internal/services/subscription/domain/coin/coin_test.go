package coin

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmountAccepts(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "0"},
		{in: "1000000", want: "1000000"},
		{in: "010", want: "10"},
		{in: "340282366920938463463374607431768211455", want: "340282366920938463463374607431768211455"},
	}
	for _, tc := range tests {
		got, err := ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	inputs := []string{
		"",
		"-5",
		"abc",
		"+5",
		" 5",
		"5 ",
		"1_000",
		"1.5",
		"0x10",
		"1e6",
		"340282366920938463463374607431768211456",
		"99999999999999999999999999999999999999999999",
	}
	for _, in := range inputs {
		_, err := ParseAmount(in)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q) err = %v, want ErrInvalidAmount", in, err)
		}
	}
}

func TestParseAmountReportsReason(t *testing.T) {
	_, err := ParseAmount("-5")
	var amountErr *AmountError
	if !errors.As(err, &amountErr) {
		t.Fatalf("err = %T, want *AmountError", err)
	}
	if amountErr.Input != "-5" || amountErr.Reason != "negative" {
		t.Fatalf("amount error = %+v", amountErr)
	}
	if got := err.Error(); got != `invalid amount: negative "-5"` {
		t.Fatalf("Error() = %q", got)
	}
}

func TestAmountCompare(t *testing.T) {
	small := NewAmount(5)
	big := MustParseAmount("18446744073709551616")
	if small.Cmp(big) != -1 || big.Cmp(small) != 1 || small.Cmp(NewAmount(5)) != 0 {
		t.Fatal("unexpected comparison result")
	}
	if !Zero.IsZero() || small.IsZero() {
		t.Fatal("unexpected IsZero result")
	}
	if NewAmount(5) != small {
		t.Fatal("expected equal amounts to compare with ==")
	}
}

func TestAmountJSON(t *testing.T) {
	c := New("uatom", MustParseAmount("1000000"))
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"denom":"uatom","amount":"1000000"}` {
		t.Fatalf("json = %s", data)
	}

	var decoded Coin
	if err := json.Unmarshal([]byte(`{"denom":"uatom","amount":"-1"}`), &decoded); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("unmarshal negative err = %v, want ErrInvalidAmount", err)
	}
	if err := json.Unmarshal([]byte(`{"denom":"uatom","amount":5}`), &decoded); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("unmarshal number err = %v, want ErrInvalidAmount", err)
	}
}

func TestCoinString(t *testing.T) {
	if got := New("uatom", NewAmount(42)).String(); got != "42uatom" {
		t.Fatalf("String() = %q", got)
	}
}

// A leading plus sign is refused even though it names a non-negative value.
func TestParseAmountRejectsPlusSign(t *testing.T) {
	for _, in := range []string{"+5", "+0", "+"} {
		_, err := ParseAmount(in)
		var amountErr *AmountError
		if !errors.As(err, &amountErr) {
			t.Fatalf("ParseAmount(%q) err = %v, want *AmountError", in, err)
		}
		if amountErr.Input != in || amountErr.Reason != "not numeric" {
			t.Fatalf("ParseAmount(%q) error = %+v", in, amountErr)
		}
	}
}
