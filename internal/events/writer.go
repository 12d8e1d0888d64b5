package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Journal event types.
const (
	TypeGroupReset        = "gruppe.reset"
	TypeWaiversSubmitted  = "gruppe.verzicht"
	TypeFeesSubmitted     = "gruppe.entgeltvergleich"
	TypeBidsSubmitted     = "gruppe.hoechstpreis"
	TypeAnalysis          = "gruppe.analyse"
	TypeTopfDeleted       = "topf.delete"
	TypeAnfrageReset      = "anfrage.reset"
	TypeAnfrageCreated    = "anfrage.create"
	TypeAssignAll         = "anfragen.zuordnen"
	TypeConflictsDetected = "konflikte.identifiziert"
	TypeSlotsCreated      = "slots.create"
	TypeSlotsDeleted      = "slots.bulk_delete"
)

// Outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Event is one journal row.
type Event struct {
	Type       string
	EntityKind string
	EntityID   string
	RequestID  string
	Outcome    string
	Message    string
	Payload    EventPayload
}

type EventPayload map[string]any

// Writer appends journal rows. A nil DB turns it into a no-op.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

func (w Writer) Append(ctx context.Context, e Event) error {
	if w.DB == nil {
		return nil
	}
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if e.Payload == nil {
		e.Payload = EventPayload{}
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = w.DB.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,request_id,outcome,message,payload_json) VALUES (?,?,?,?,?,?,?,?)`,
		ts, e.Type, e.EntityKind, nullable(e.EntityID), nullable(e.RequestID), e.Outcome, nullable(e.Message), string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
