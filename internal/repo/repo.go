package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type Repo struct {
	DB  *sql.DB
	Now func() time.Time
}

var ErrNotFound = errors.New("not found")

// Draft is the persisted coordination input of one conflict group.
// Identity is the group identity the input was entered against.
type Draft struct {
	Kind      string
	GroupID   string
	Identity  string
	Payload   json.RawMessage
	UpdatedAt string
}

func (r Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r Repo) GetDraft(ctx context.Context, kind, groupID string) (Draft, error) {
	var d Draft
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT kind,group_id,identity,payload_json,updated_at FROM drafts WHERE kind=? AND group_id=?`, kind, groupID).
		Scan(&d.Kind, &d.GroupID, &d.Identity, &payload, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	d.Payload = json.RawMessage(payload)
	return d, nil
}

func (r Repo) SaveDraft(ctx context.Context, d Draft) error {
	if len(d.Payload) == 0 {
		d.Payload = json.RawMessage("{}")
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO drafts(kind,group_id,identity,payload_json,updated_at) VALUES (?,?,?,?,?)
ON CONFLICT(kind,group_id) DO UPDATE SET identity=excluded.identity, payload_json=excluded.payload_json, updated_at=excluded.updated_at`,
		d.Kind, d.GroupID, d.Identity, string(d.Payload), r.now().UTC().Format(time.RFC3339))
	return err
}

func (r Repo) DeleteDraft(ctx context.Context, kind, groupID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM drafts WHERE kind=? AND group_id=?`, kind, groupID)
	return err
}

func (r Repo) ListDrafts(ctx context.Context) ([]Draft, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT kind,group_id,identity,payload_json,updated_at FROM drafts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Draft
	for rows.Next() {
		var d Draft
		var payload string
		if err := rows.Scan(&d.Kind, &d.GroupID, &d.Identity, &payload, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Payload = json.RawMessage(payload)
		res = append(res, d)
	}
	return res, rows.Err()
}

// JournalEntry is one row of the action journal.
type JournalEntry struct {
	ID         int64           `json:"id"`
	TS         string          `json:"ts"`
	Type       string          `json:"type"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Outcome    string          `json:"outcome"`
	Message    string          `json:"message,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

type JournalFilter struct {
	EntityKind string
	EntityID   string
	Limit      int
}

// TailJournal returns the latest entries, newest first.
func (r Repo) TailJournal(ctx context.Context, f JournalFilter) ([]JournalEntry, error) {
	query := `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),COALESCE(request_id,''),outcome,COALESCE(message,''),payload_json FROM events WHERE 1=1`
	var args []any
	if f.EntityKind != "" {
		query += ` AND entity_kind=?`
		args = append(args, f.EntityKind)
	}
	if f.EntityID != "" {
		query += ` AND entity_id=?`
		args = append(args, f.EntityID)
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, f.Limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var payload string
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.RequestID, &e.Outcome, &e.Message, &payload); err != nil {
			return nil, err
		}
		e.Payload = json.RawMessage(payload)
		res = append(res, e)
	}
	return res, rows.Err()
}
