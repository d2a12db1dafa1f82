package sqlite

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/coin"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/payment"
	"github.com/fruitbox12/Subscription/internal/services/subscription/storage"
)

// AddSubscriptionOption inserts option. Inserting an option that is already
// offered leaves the set unchanged and succeeds.
func (s *Store) AddSubscriptionOption(ctx context.Context, option payment.Option) error {
	if err := s.ready(ctx); err != nil {
		return errors.Wrap(errors.CodeStorageWrite, "add subscription option", err)
	}
	if option.SubscriptionDurationDays > math.MaxInt64 {
		return errors.New(errors.CodeStorageWrite, "subscription duration exceeds storage range")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO payment_options (
		   option_key,
		   subscription_duration_days,
		   price_denom,
		   price_amount,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(option_key) DO NOTHING`,
		option.Key(),
		int64(option.SubscriptionDurationDays),
		option.Price.Denom,
		option.Price.Amount.String(),
		toMillis(s.timestamp()),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return errors.Wrap(errors.CodeStorageWrite, "add subscription option: constraint violated", err)
		}
		return errors.Wrap(errors.CodeStorageWrite, "add subscription option", err)
	}
	return nil
}

// RemoveSubscriptionOption deletes the option equal to option. Removing an
// option that is not offered succeeds without changes.
func (s *Store) RemoveSubscriptionOption(ctx context.Context, option payment.Option) error {
	if err := s.ready(ctx); err != nil {
		return errors.Wrap(errors.CodeStorageWrite, "remove subscription option", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM payment_options WHERE option_key = ?`, option.Key()); err != nil {
		return errors.Wrap(errors.CodeStorageWrite, "remove subscription option", err)
	}
	return nil
}

// ListSubscriptionOptions returns one page of options ordered by key.
func (s *Store) ListSubscriptionOptions(ctx context.Context, query storage.ListQuery) (storage.OptionPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OptionPage{}, err
	}
	if query.PageSize <= 0 {
		return storage.OptionPage{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		cursor string
		params []any
	)
	pageToken := strings.TrimSpace(query.PageToken)
	if pageToken != "" {
		if !validOptionKey(pageToken) {
			return storage.OptionPage{}, errors.WithMetadata(errors.CodePageTokenInvalid,
				fmt.Sprintf("invalid page token %q", pageToken), map[string]string{"PageToken": pageToken})
		}
		cursor = "option_key > ?"
		params = append(params, pageToken)
	}
	params = append(params, query.Filter.Params...)
	params = append(params, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT option_key, subscription_duration_days, price_denom, price_amount
		   FROM payment_options`+whereClause(cursor, query.Filter.Clause)+`
		  ORDER BY option_key ASC
		  LIMIT ?`,
		params...,
	)
	if err != nil {
		return storage.OptionPage{}, fmt.Errorf("list subscription options: %w", err)
	}
	defer rows.Close()

	page := storage.OptionPage{Options: make([]payment.Option, 0, query.PageSize)}
	var keys []string
	for rows.Next() {
		var (
			key      string
			duration int64
			denom    string
			amount   string
		)
		if err := rows.Scan(&key, &duration, &denom, &amount); err != nil {
			return storage.OptionPage{}, fmt.Errorf("list subscription options: %w", err)
		}
		parsed, err := coin.ParseAmount(amount)
		if err != nil {
			return storage.OptionPage{}, fmt.Errorf("list subscription options: stored amount for %s: %w", key, err)
		}
		page.Options = append(page.Options, payment.Option{
			SubscriptionDurationDays: uint64(duration),
			Price:                    coin.New(denom, parsed),
		})
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return storage.OptionPage{}, fmt.Errorf("list subscription options: %w", err)
	}
	if len(page.Options) > query.PageSize {
		page.NextPageToken = keys[query.PageSize-1]
		page.Options = page.Options[:query.PageSize]
	}
	return page, nil
}

// validOptionKey reports whether token has the days/amount/denom shape of
// payment.Option.Key.
func validOptionKey(token string) bool {
	days, rest, ok := strings.Cut(token, "/")
	if !ok {
		return false
	}
	amount, denom, ok := strings.Cut(rest, "/")
	if !ok || strings.TrimSpace(denom) == "" {
		return false
	}
	if _, err := strconv.ParseUint(days, 10, 64); err != nil {
		return false
	}
	_, err := coin.ParseAmount(amount)
	return err == nil
}
