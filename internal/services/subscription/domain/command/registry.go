package command

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/coin"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/payment"
)

// Decoder turns a payload JSON document into a typed command.
type Decoder func(json.RawMessage) (Command, error)

// Definition registers metadata for a command type.
type Definition struct {
	Type    Type
	Mutates bool
	Decode  Decoder
}

// Registry stores command definitions and decodes commands.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// NewAdminRegistry returns a registry holding the three admin commands.
func NewAdminRegistry() *Registry {
	r := NewRegistry()
	for _, def := range []Definition{
		{Type: TypeWithdraw, Decode: decodeWithdraw},
		{Type: TypeAddSubscriptionOption, Mutates: true, Decode: decodeAdd},
		{Type: TypeRemoveSubscriptionOption, Mutates: true, Decode: decodeRemove},
	} {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a new command type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return fmt.Errorf("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return fmt.Errorf("command type is required")
	}
	if def.Decode == nil {
		return fmt.Errorf("command %s: decoder is required", def.Type)
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("command type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// Definition returns the command definition for a given type.
func (r *Registry) Definition(cmdType Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[Type(strings.TrimSpace(string(cmdType)))]
	return def, ok
}

// ListDefinitions returns a stable, sorted snapshot of registered definitions.
func (r *Registry) ListDefinitions() []Definition {
	if r == nil || len(r.definitions) == 0 {
		return nil
	}
	definitions := make([]Definition, 0, len(r.definitions))
	for _, definition := range r.definitions {
		definitions = append(definitions, definition)
	}
	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Type < definitions[j].Type
	})
	return definitions
}

// Decode resolves cmdType and decodes payload into its typed command.
func (r *Registry) Decode(cmdType Type, payload []byte) (Command, error) {
	def, ok := r.Definition(cmdType)
	if !ok {
		return nil, errors.WithMetadata(errors.CodeCommandTypeUnknown,
			fmt.Sprintf("command type is not registered: %q", cmdType),
			map[string]string{"Type": string(cmdType)})
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}
	return def.Decode(json.RawMessage(payload))
}

type withdrawPayload struct {
	Denom       *string `json:"denom"`
	Amount      *string `json:"amount"`
	Beneficiary *string `json:"beneficiary"`
}

type optionPayload struct {
	SubscriptionOption *payment.Option `json:"subscription_option"`
}

func decodeWithdraw(raw json.RawMessage) (Command, error) {
	var p withdrawPayload
	if err := decodeStrict(raw, &p); err != nil {
		return nil, err
	}
	switch {
	case p.Denom == nil:
		return nil, payloadError("withdraw: denom is required", nil)
	case p.Amount == nil:
		return nil, payloadError("withdraw: amount is required", nil)
	case p.Beneficiary == nil:
		return nil, payloadError("withdraw: beneficiary is required", nil)
	}
	return Withdraw{Denom: *p.Denom, Amount: *p.Amount, Beneficiary: *p.Beneficiary}, nil
}

func decodeAdd(raw json.RawMessage) (Command, error) {
	option, err := decodeOption(raw)
	if err != nil {
		return nil, err
	}
	return AddSubscriptionOption{Option: option}, nil
}

func decodeRemove(raw json.RawMessage) (Command, error) {
	option, err := decodeOption(raw)
	if err != nil {
		return nil, err
	}
	return RemoveSubscriptionOption{Option: option}, nil
}

func decodeOption(raw json.RawMessage) (payment.Option, error) {
	var p optionPayload
	if err := decodeStrict(raw, &p); err != nil {
		return payment.Option{}, err
	}
	if p.SubscriptionOption == nil {
		return payment.Option{}, optionError("subscription_option")
	}
	option := *p.SubscriptionOption
	if err := option.Validate(); err != nil {
		switch {
		case stderrors.Is(err, payment.ErrDenomRequired):
			return payment.Option{}, optionError("price.denom")
		default:
			return payment.Option{}, optionError("subscription_duration_days")
		}
	}
	return option, nil
}

func decodeStrict(raw json.RawMessage, target any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if stderrors.Is(err, coin.ErrInvalidAmount) {
			return InvalidAmountError(err)
		}
		return payloadError("decode payload", err)
	}
	if _, err := dec.Token(); !stderrors.Is(err, io.EOF) {
		return payloadError("payload has trailing data", nil)
	}
	return nil
}

// InvalidAmountError converts an amount parse failure into an INVALID_AMOUNT
// domain error carrying the rejected input.
func InvalidAmountError(err error) *errors.Error {
	metadata := map[string]string{"Amount": ""}
	var amountErr *coin.AmountError
	if stderrors.As(err, &amountErr) {
		metadata["Amount"] = amountErr.Input
		metadata["Reason"] = amountErr.Reason
	}
	return errors.WrapWithMetadata(errors.CodeInvalidAmount, "parse amount", metadata, err)
}

func payloadError(message string, cause error) *errors.Error {
	return errors.Wrap(errors.CodeCommandPayloadInvalid, message, cause)
}

func optionError(field string) *errors.Error {
	return errors.WithMetadata(errors.CodePaymentOptionIncomplete,
		"payment option is missing "+field,
		map[string]string{"Field": field})
}
