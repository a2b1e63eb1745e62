package watchlist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"idhub/pkg/sentinel"
)

// PostgresStore persists watchlist entries in PostgreSQL. Actions are stored
// as a JSONB document since they are always read and written whole.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed watchlist store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, e *Entry) error {
	actions, err := json.Marshal(e.Actions)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}

	query := `
		INSERT INTO watchlist_entries (
			id, name, national_id, reason, severity, actions, notes,
			added_by, added_by_agency, added_at, expires_at,
			resolved_at, resolved_by, resolved_reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			resolved_at = EXCLUDED.resolved_at,
			resolved_by = EXCLUDED.resolved_by,
			resolved_reason = EXCLUDED.resolved_reason,
			notes = EXCLUDED.notes
	`
	_, err = s.db.ExecContext(ctx, query,
		e.ID, e.Name, nullable(e.NationalID), string(e.Reason), string(e.Severity),
		actions, e.Notes, e.AddedBy, nullable(e.AddedByAgency), e.AddedAt, e.ExpiresAt,
		e.ResolvedAt, nullable(e.ResolvedBy), nullable(e.ResolvedReason),
	)
	if err != nil {
		return fmt.Errorf("save watchlist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get watchlist entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) FindBySubject(ctx context.Context, nationalID, name string) ([]*Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if nationalID != "" {
		rows, err = s.db.QueryContext(ctx, selectEntry+` WHERE national_id = $1 ORDER BY added_at`, nationalID)
	} else {
		rows, err = s.db.QueryContext(ctx, selectEntry+` WHERE lower(name) = lower($1) ORDER BY added_at`, name)
	}
	if err != nil {
		return nil, fmt.Errorf("find watchlist entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectEntry+` ORDER BY added_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list watchlist entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

const selectEntry = `
	SELECT id, name, national_id, reason, severity, actions, notes,
	       added_by, added_by_agency, added_at, expires_at,
	       resolved_at, resolved_by, resolved_reason
	FROM watchlist_entries
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e              Entry
		nationalID     sql.NullString
		addedByAgency  sql.NullString
		resolvedBy     sql.NullString
		resolvedReason sql.NullString
		actions        []byte
	)
	err := row.Scan(
		&e.ID, &e.Name, &nationalID, &e.Reason, &e.Severity, &actions,
		&e.Notes, &e.AddedBy, &addedByAgency, &e.AddedAt, &e.ExpiresAt,
		&e.ResolvedAt, &resolvedBy, &resolvedReason,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(actions, &e.Actions); err != nil {
		return nil, fmt.Errorf("unmarshal actions: %w", err)
	}
	e.NationalID = nationalID.String
	e.AddedByAgency = addedByAgency.String
	e.ResolvedBy = resolvedBy.String
	e.ResolvedReason = resolvedReason.String
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist entries: %w", err)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
