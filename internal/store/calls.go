// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/elements-sync/pkg/types"
)

// The audit log is append-only: rows are inserted once and only their
// response columns are ever updated.

const callColumns = `id, request_url, request_xml, COALESCE(response_body, ''), response_status, timestamp, COALESCE(retry_of, '')`

func scanCall(row interface{ Scan(...any) error }) (types.OutboundCall, error) {
	var (
		c      types.OutboundCall
		status sql.NullInt64
		ts     int64
	)
	if err := row.Scan(&c.ID, &c.RequestURL, &c.RequestXML, &c.ResponseBody, &status, &ts, &c.RetryOf); err != nil {
		return types.OutboundCall{}, err
	}
	if status.Valid {
		code := int(status.Int64)
		c.ResponseStatus = &code
	}
	c.Timestamp = fromUnix(ts)
	return c, nil
}

// CreateOutboundCall appends a call to the audit log. A missing ID is
// assigned a new UUID and a zero Timestamp is set to now. The stored call
// is returned.
func (s *Store) CreateOutboundCall(ctx context.Context, c types.OutboundCall) (types.OutboundCall, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now()
	}
	c.Timestamp = c.Timestamp.UTC()

	var status sql.NullInt64
	if c.ResponseStatus != nil {
		status = sql.NullInt64{Int64: int64(*c.ResponseStatus), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbound_calls (id, request_url, request_xml, response_body, response_status, timestamp, retry_of)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RequestURL, c.RequestXML, nullString(c.ResponseBody), status, toUnix(c.Timestamp), nullString(c.RetryOf),
	)
	if err != nil {
		return types.OutboundCall{}, fmt.Errorf("inserting outbound call: %w", err)
	}
	return c, nil
}

// AttachResponse records the registry's answer to a call. A nil status
// leaves the call unanswered.
func (s *Store) AttachResponse(ctx context.Context, id string, status *int, body string) error {
	var code sql.NullInt64
	if status != nil {
		code = sql.NullInt64{Int64: int64(*status), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE outbound_calls SET response_status = ?, response_body = ? WHERE id = ?`,
		code, nullString(body), id)
	if err != nil {
		return fmt.Errorf("attaching response to call %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("outbound call %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetOutboundCall returns one call, or ErrNotFound.
func (s *Store) GetOutboundCall(ctx context.Context, id string) (types.OutboundCall, error) {
	c, err := scanCall(s.db.QueryRowContext(ctx,
		`SELECT `+callColumns+` FROM outbound_calls WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.OutboundCall{}, fmt.Errorf("outbound call %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.OutboundCall{}, fmt.Errorf("querying outbound call %s: %w", id, err)
	}
	return c, nil
}

// UnansweredCalls lists calls that never received a response status and
// have not been retried, oldest first. These are the candidates for manual
// replay.
func (s *Store) UnansweredCalls(ctx context.Context) ([]types.OutboundCall, error) {
	return s.queryCalls(ctx,
		`SELECT `+callColumns+` FROM outbound_calls o
		 WHERE response_status IS NULL
		   AND NOT EXISTS (SELECT 1 FROM outbound_calls r WHERE r.retry_of = o.id)
		 ORDER BY timestamp`)
}

// PrunableCalls lists successful calls made before olderThan, oldest
// first. Deleting them is left to the retention job.
func (s *Store) PrunableCalls(ctx context.Context, olderThan time.Time) ([]types.OutboundCall, error) {
	return s.queryCalls(ctx,
		`SELECT `+callColumns+` FROM outbound_calls
		 WHERE response_status BETWEEN 200 AND 299 AND timestamp < ? ORDER BY timestamp`,
		toUnix(olderThan))
}

// CallsForURL lists every call made to url, oldest first.
func (s *Store) CallsForURL(ctx context.Context, url string) ([]types.OutboundCall, error) {
	return s.queryCalls(ctx,
		`SELECT `+callColumns+` FROM outbound_calls WHERE request_url = ? ORDER BY timestamp, rowid`, url)
}

// RetryChain walks retry_of links back from id and returns the chain
// oldest first, id last. It follows at most maxDepth links.
func (s *Store) RetryChain(ctx context.Context, id string, maxDepth int) ([]types.OutboundCall, error) {
	var chain []types.OutboundCall
	next := id
	for depth := 0; next != "" && depth <= maxDepth; depth++ {
		c, err := s.GetOutboundCall(ctx, next)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
		next = c.RetryOf
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (s *Store) queryCalls(ctx context.Context, query string, args ...any) ([]types.OutboundCall, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying outbound calls: %w", err)
	}
	defer rows.Close()

	var out []types.OutboundCall
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning outbound call: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
