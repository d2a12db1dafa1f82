package admin

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/coin"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/payment"
	"github.com/fruitbox12/Subscription/internal/services/subscription/storage"
)

// ExecuteRequest is the decoded form of an Execute request.
type ExecuteRequest struct {
	Type        string
	PayloadJSON []byte
}

// ListRequest is the decoded form of a listing request.
type ListRequest struct {
	Filter    string
	PageSize  int
	PageToken string
}

// NewExecuteRequest builds the request document for Execute. payload may be
// nil.
func NewExecuteRequest(cmdType string, payload map[string]any) (*structpb.Struct, error) {
	fields := map[string]any{"type": cmdType}
	if payload != nil {
		fields["payload"] = payload
	}
	return structpb.NewStruct(fields)
}

// NewListRequest builds the request document for the listing methods.
func NewListRequest(req ListRequest) (*structpb.Struct, error) {
	fields := map[string]any{}
	if req.Filter != "" {
		fields["filter"] = req.Filter
	}
	if req.PageSize > 0 {
		fields["page_size"] = req.PageSize
	}
	if req.PageToken != "" {
		fields["page_token"] = req.PageToken
	}
	return structpb.NewStruct(fields)
}

func decodeExecuteRequest(in *structpb.Struct) (ExecuteRequest, error) {
	if in == nil {
		return ExecuteRequest{}, errors.New(errors.CodeCommandPayloadInvalid, "execute request is required")
	}
	fields := in.GetFields()
	typeValue, ok := fields["type"]
	if !ok {
		return ExecuteRequest{}, errors.New(errors.CodeCommandPayloadInvalid, "type is required")
	}
	cmdType, ok := typeValue.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return ExecuteRequest{}, errors.New(errors.CodeCommandPayloadInvalid, "type must be a string")
	}
	req := ExecuteRequest{Type: cmdType.StringValue}
	payload, ok := fields["payload"]
	if !ok {
		return req, nil
	}
	if payload.GetStructValue() == nil {
		return ExecuteRequest{}, errors.New(errors.CodeCommandPayloadInvalid, "payload must be an object")
	}
	if err := checkPayloadNumbers("payload", payload); err != nil {
		return ExecuteRequest{}, err
	}
	data, err := protojson.Marshal(payload.GetStructValue())
	if err != nil {
		return ExecuteRequest{}, errors.Wrap(errors.CodeCommandPayloadInvalid, "encode payload", err)
	}
	req.PayloadJSON = data
	return req, nil
}

// maxExactInteger is the largest integer below which every Struct number is
// exact. 1<<53 itself is also the rounded form of 1<<53+1, so it is excluded.
const maxExactInteger = 1<<53 - 1

// checkPayloadNumbers rejects numbers that are not integers in
// [0, maxExactInteger]. Struct numbers are float64, so larger values have
// already been rounded and must not reach a command.
func checkPayloadNumbers(path string, v *structpb.Value) error {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if math.IsNaN(n) || n < 0 || n > maxExactInteger || n != math.Trunc(n) {
			return errors.WithMetadata(errors.CodeCommandPayloadInvalid,
				fmt.Sprintf("%s must be an integer between 0 and %d", path, uint64(maxExactInteger)),
				map[string]string{"Field": path})
		}
	case *structpb.Value_StructValue:
		for name, field := range kind.StructValue.GetFields() {
			if err := checkPayloadNumbers(path+"."+name, field); err != nil {
				return err
			}
		}
	case *structpb.Value_ListValue:
		for i, item := range kind.ListValue.GetValues() {
			if err := checkPayloadNumbers(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeListRequest(in *structpb.Struct) (ListRequest, error) {
	var req ListRequest
	fields := in.GetFields()
	if v, ok := fields["filter"]; ok {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return ListRequest{}, errors.New(errors.CodeFilterInvalid, "filter must be a string")
		}
		req.Filter = s.StringValue
	}
	if v, ok := fields["page_size"]; ok {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || n.NumberValue < 0 || n.NumberValue != math.Trunc(n.NumberValue) {
			return ListRequest{}, errors.New(errors.CodeCommandPayloadInvalid, "page_size must be a non-negative integer")
		}
		req.PageSize = int(min(n.NumberValue, math.MaxInt32))
	}
	if v, ok := fields["page_token"]; ok {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return ListRequest{}, errors.New(errors.CodeCommandPayloadInvalid, "page_token must be a string")
		}
		req.PageToken = s.StringValue
	}
	return req, nil
}

func coinsToValues(coins []coin.Coin) []any {
	values := make([]any, 0, len(coins))
	for _, c := range coins {
		values = append(values, map[string]any{"denom": c.Denom, "amount": c.Amount.String()})
	}
	return values
}

func optionToValue(option payment.Option) map[string]any {
	return map[string]any{
		"subscription_duration_days": option.SubscriptionDurationDays,
		"price":                      map[string]any{"denom": option.Price.Denom, "amount": option.Price.Amount.String()},
	}
}

func entryToValue(entry storage.OutboxEntry) map[string]any {
	return map[string]any{
		"id":           entry.ID,
		"request_id":   entry.RequestID,
		"command_type": entry.CommandType,
		"caller":       string(entry.Caller),
		"kind":         string(entry.Instruction.Kind),
		"to_address":   entry.Instruction.ToAddress,
		"amount":       coinsToValues(entry.Instruction.Amount),
		"status":       entry.Status,
		"created_at":   entry.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}
