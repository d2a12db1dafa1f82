package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/coin"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/settlement"
	"github.com/fruitbox12/Subscription/internal/services/subscription/storage"
)

// EnqueueInstructions appends every instruction of req as a pending outbox
// entry in one transaction.
func (s *Store) EnqueueInstructions(ctx context.Context, req storage.EnqueueRequest) ([]storage.OutboxEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, errors.Wrap(errors.CodeStorageWrite, "enqueue settlement instructions", err)
	}
	if len(req.Instructions) == 0 {
		return nil, nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageWrite, "begin enqueue transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := s.timestamp()
	entries := make([]storage.OutboxEntry, 0, len(req.Instructions))
	for _, inst := range req.Instructions {
		entryID, err := s.nextID()
		if err != nil {
			return nil, errors.Wrap(errors.CodeStorageWrite, "generate outbox id", err)
		}
		amountJSON, err := json.Marshal(inst.Amount)
		if err != nil {
			return nil, errors.Wrap(errors.CodeStorageWrite, "encode instruction amount", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settlement_outbox (
			   id, request_id, command_type, caller, kind, to_address, amount_json, status, created_at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entryID,
			req.RequestID,
			req.CommandType,
			string(req.Caller),
			string(inst.Kind),
			inst.ToAddress,
			string(amountJSON),
			storage.StatusPending,
			toMillis(createdAt),
		); err != nil {
			return nil, errors.Wrap(errors.CodeStorageWrite, "insert outbox entry", err)
		}
		entries = append(entries, storage.OutboxEntry{
			ID:          entryID,
			RequestID:   req.RequestID,
			CommandType: req.CommandType,
			Caller:      req.Caller,
			Instruction: inst,
			Status:      storage.StatusPending,
			CreatedAt:   fromMillis(toMillis(createdAt)),
		})
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(errors.CodeStorageWrite, "commit enqueue transaction", err)
	}
	return entries, nil
}

// ListInstructions returns one page of outbox entries in enqueue order.
func (s *Store) ListInstructions(ctx context.Context, query storage.ListQuery) (storage.InstructionPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.InstructionPage{}, err
	}
	if query.PageSize <= 0 {
		return storage.InstructionPage{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		cursor string
		params []any
	)
	if pageToken := strings.TrimSpace(query.PageToken); pageToken != "" {
		seq, err := strconv.ParseInt(pageToken, 10, 64)
		if err != nil || seq < 0 {
			return storage.InstructionPage{}, errors.WithMetadata(errors.CodePageTokenInvalid,
				fmt.Sprintf("invalid page token %q", pageToken), map[string]string{"PageToken": pageToken})
		}
		cursor = "seq > ?"
		params = append(params, seq)
	}
	params = append(params, query.Filter.Params...)
	params = append(params, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, id, request_id, command_type, caller, kind, to_address, amount_json, status, created_at
		   FROM settlement_outbox`+whereClause(cursor, query.Filter.Clause)+`
		  ORDER BY seq ASC
		  LIMIT ?`,
		params...,
	)
	if err != nil {
		return storage.InstructionPage{}, fmt.Errorf("list settlement instructions: %w", err)
	}
	defer rows.Close()

	page := storage.InstructionPage{Entries: make([]storage.OutboxEntry, 0, query.PageSize)}
	var seqs []int64
	for rows.Next() {
		var (
			seq        int64
			entry      storage.OutboxEntry
			caller     string
			kind       string
			amountJSON string
			createdAt  int64
		)
		if err := rows.Scan(&seq, &entry.ID, &entry.RequestID, &entry.CommandType, &caller, &kind,
			&entry.Instruction.ToAddress, &amountJSON, &entry.Status, &createdAt); err != nil {
			return storage.InstructionPage{}, fmt.Errorf("list settlement instructions: %w", err)
		}
		var amount []coin.Coin
		if err := json.Unmarshal([]byte(amountJSON), &amount); err != nil {
			return storage.InstructionPage{}, fmt.Errorf("list settlement instructions: decode amount of %s: %w", entry.ID, err)
		}
		entry.Caller = principal.ID(caller)
		entry.Instruction.Kind = settlement.Kind(kind)
		entry.Instruction.Amount = amount
		entry.CreatedAt = fromMillis(createdAt)
		page.Entries = append(page.Entries, entry)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return storage.InstructionPage{}, fmt.Errorf("list settlement instructions: %w", err)
	}
	if len(page.Entries) > query.PageSize {
		page.NextPageToken = strconv.FormatInt(seqs[query.PageSize-1], 10)
		page.Entries = page.Entries[:query.PageSize]
	}
	return page, nil
}
