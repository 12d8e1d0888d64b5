package slotsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Page is one page of a paginated collection.
type Page[T any] struct {
	Items      []T
	TotalPages int
}

// PageQuery selects a page and optional server-side filters.
type PageQuery struct {
	Page   int
	Limit  int
	Status string
	SortBy string
}

func (q PageQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	return v
}

// ActionResult is the outcome of a mutating call.
type ActionResult struct {
	Message string
	Data    json.RawMessage
	Raw     json.RawMessage
}

func listPage[T any](ctx context.Context, c *Client, endpoint string, q PageQuery) (Page[T], error) {
	resp, err := c.Get(ctx, endpoint, q.values())
	if err != nil {
		return Page[T]{}, err
	}
	var items []T
	if err := resp.DecodeData(&items); err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Items: items, TotalPages: resp.TotalPages}, nil
}

func getData[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (T, error) {
	var out T
	resp, err := c.Get(ctx, endpoint, query)
	if err != nil {
		return out, err
	}
	err = resp.DecodeData(&out)
	return out, err
}

func action(resp Response, err error) (ActionResult, error) {
	if err != nil {
		return ActionResult{}, err
	}
	return ActionResult{Message: resp.Message, Data: resp.Data, Raw: resp.Raw}, nil
}

func idPath(prefix, id string) string {
	return fmt.Sprintf("%s/%s", prefix, url.PathEscape(id))
}

// --- slots ---

func (c *Client) ListSlots(ctx context.Context, q PageQuery) (Page[Slot], error) {
	return listPage[Slot](ctx, c, "slots", q)
}

func (c *Client) GetSlot(ctx context.Context, id string) (Slot, error) {
	return getData[Slot](ctx, c, idPath("slots", id), nil)
}

func (c *Client) SlotSummary(ctx context.Context) ([]SlotSummaryRow, error) {
	return getData[[]SlotSummaryRow](ctx, c, "slots/summary", nil)
}

func (c *Client) SlotCounter(ctx context.Context) ([]SlotCounterGroup, error) {
	return getData[[]SlotCounterGroup](ctx, c, "slots/counter", nil)
}

// SlotsByMuster lists the slot instances of one timetable pattern.
func (c *Client) SlotsByMuster(ctx context.Context, m SlotMuster) ([]Slot, error) {
	q := url.Values{}
	q.Set("von", m.Von)
	q.Set("bis", m.Bis)
	if m.Abschnitt != "" {
		q.Set("Abschnitt", m.Abschnitt)
	}
	q.Set("Verkehrsart", m.Verkehrsart)
	q.Set("abfahrtStunde", strconv.Itoa(m.Abfahrt.Stunde))
	q.Set("abfahrtMinute", strconv.Itoa(m.Abfahrt.Minute))
	q.Set("ankunftStunde", strconv.Itoa(m.Ankunft.Stunde))
	q.Set("ankunftMinute", strconv.Itoa(m.Ankunft.Minute))
	return getData[[]Slot](ctx, c, "slots/by-muster", q)
}

// SlotBatchResult is the body of POST /slots/massen-erstellung.
type SlotBatchResult struct {
	Message        string            `json:"message"`
	ErstellteSlots []json.RawMessage `json:"erstellteSlots"`
	Fehler         []json.RawMessage `json:"fehler"`
}

func (c *Client) CreateSlotBatch(ctx context.Context, payload any) (SlotBatchResult, error) {
	resp, err := c.Post(ctx, "slots/massen-erstellung", payload)
	if err != nil {
		return SlotBatchResult{}, err
	}
	var out SlotBatchResult
	err = resp.DecodeRaw(&out)
	return out, err
}

func (c *Client) BulkDeleteSlots(ctx context.Context, ids []string) (ActionResult, error) {
	return action(c.Post(ctx, "slots/bulk-delete", map[string]any{"slotIdsToDelete": ids}))
}

// --- anfragen ---

func (c *Client) ListAnfragen(ctx context.Context, q PageQuery) (Page[Anfrage], error) {
	return listPage[Anfrage](ctx, c, "anfragen", q)
}

func (c *Client) GetAnfrage(ctx context.Context, id string) (Anfrage, error) {
	return getData[Anfrage](ctx, c, idPath("anfragen", id), nil)
}

func (c *Client) AnfrageSummary(ctx context.Context) ([]AnfrageSummaryRow, error) {
	return getData[[]AnfrageSummaryRow](ctx, c, "anfragen/summary", nil)
}

func (c *Client) CreateAnfrage(ctx context.Context, payload any) (Anfrage, error) {
	resp, err := c.Post(ctx, "anfragen", payload)
	if err != nil {
		return Anfrage{}, err
	}
	var out Anfrage
	err = resp.DecodeData(&out)
	return out, err
}

func (c *Client) ResetZuordnung(ctx context.Context, id string) (ActionResult, error) {
	return action(c.Post(ctx, idPath("anfragen", id)+"/reset-zuordnung", nil))
}

// ZuordnungSummary is the outcome of assigning all validated Anfragen.
type ZuordnungSummary struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

func (c *Client) ZuordnenAlleValidierten(ctx context.Context) (ZuordnungSummary, string, error) {
	resp, err := c.Post(ctx, "anfragen/zuordnen/alle-validierten", nil)
	if err != nil {
		return ZuordnungSummary{}, "", err
	}
	var body struct {
		Message string           `json:"message"`
		Summary ZuordnungSummary `json:"summary"`
	}
	err = resp.DecodeRaw(&body)
	return body.Summary, body.Message, err
}

// --- kapazitaetstoepfe ---

func (c *Client) ListToepfe(ctx context.Context, q PageQuery) (Page[Kapazitaetstopf], error) {
	return listPage[Kapazitaetstopf](ctx, c, "kapazitaetstoepfe", q)
}

func (c *Client) GetTopf(ctx context.Context, id string) (Kapazitaetstopf, error) {
	return getData[Kapazitaetstopf](ctx, c, idPath("kapazitaetstoepfe", id), nil)
}

func (c *Client) TopfSummary(ctx context.Context) ([]TopfSummaryRow, error) {
	return getData[[]TopfSummaryRow](ctx, c, "kapazitaetstoepfe/summary", nil)
}

func (c *Client) DeleteTopf(ctx context.Context, id string) (ActionResult, error) {
	return action(c.Delete(ctx, idPath("kapazitaetstoepfe", id)))
}

// --- konflikte ---

func (c *Client) ListKonflikte(ctx context.Context, q PageQuery) (Page[Konflikt], error) {
	return listPage[Konflikt](ctx, c, "konflikte", q)
}

func (c *Client) GetKonflikt(ctx context.Context, id string) (KonfliktDetail, error) {
	return getData[KonfliktDetail](ctx, c, idPath("konflikte", id), nil)
}

// IdentifikationResult is the outcome of the pot conflict detection run.
type IdentifikationResult struct {
	Message                             string            `json:"message"`
	NeuErstellteKonflikte               []json.RawMessage `json:"neuErstellteKonflikte"`
	AktualisierteUndGeoeffneteKonflikte []json.RawMessage `json:"aktualisierteUndGeoeffneteKonflikte"`
}

func (c *Client) IdentifiziereTopfKonflikte(ctx context.Context) (IdentifikationResult, error) {
	resp, err := c.Post(ctx, "konflikte/identifiziere-topf-konflikte", nil)
	if err != nil {
		return IdentifikationResult{}, err
	}
	var out IdentifikationResult
	err = resp.DecodeRaw(&out)
	return out, err
}

// --- konfliktgruppen ---

// GroupKind selects pot groups or the parallel slot group routes.
type GroupKind string

const (
	GroupKindTopf GroupKind = "topf"
	GroupKindSlot GroupKind = "slot"
)

// ParseGroupKind accepts "topf" and "slot"; empty means topf.
func ParseGroupKind(s string) (GroupKind, error) {
	switch GroupKind(s) {
	case "", GroupKindTopf:
		return GroupKindTopf, nil
	case GroupKindSlot:
		return GroupKindSlot, nil
	}
	return "", fmt.Errorf("unknown group kind %q (want topf or slot)", s)
}

func (k GroupKind) prefix() string {
	if k == GroupKindSlot {
		return "konflikte/slot-gruppen"
	}
	return "konflikte/gruppen"
}

func (k GroupKind) path(id, suffix string) string {
	p := idPath(k.prefix(), id)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func (c *Client) ListGruppen(ctx context.Context, kind GroupKind) ([]KonfliktGruppe, error) {
	return getData[[]KonfliktGruppe](ctx, c, kind.prefix(), nil)
}

func (c *Client) GetGruppe(ctx context.Context, kind GroupKind, id string) (KonfliktGruppe, error) {
	return getData[KonfliktGruppe](ctx, c, kind.path(id, ""), nil)
}

func (c *Client) ResetGruppe(ctx context.Context, kind GroupKind, id string) (ActionResult, error) {
	return action(c.Post(ctx, kind.path(id, "reset"), nil))
}

func (c *Client) VerschiebeAnalyse(ctx context.Context, kind GroupKind, id string) (json.RawMessage, error) {
	return getData[json.RawMessage](ctx, c, kind.path(id, "verschiebe-analyse"), nil)
}

func (c *Client) Alternativen(ctx context.Context, kind GroupKind, id string) (json.RawMessage, error) {
	return getData[json.RawMessage](ctx, c, kind.path(id, "alternativen"), nil)
}

// VerzichtPayload is the body of the waiver submission.
type VerzichtPayload struct {
	ListeAnfragenMitVerzicht []string `json:"ListeAnfragenMitVerzicht"`
}

func (c *Client) VerzichtVerschub(ctx context.Context, kind GroupKind, id string, p VerzichtPayload) (ActionResult, error) {
	return action(c.Put(ctx, kind.path(id, "verzicht-verschub"), p))
}

// EVUReihung is one operator's requests in the confirmed order.
type EVUReihung struct {
	EVU        string   `json:"evu"`
	AnfrageIDs []string `json:"anfrageIds"`
}

// EntgeltvergleichPayload is the body of the fee comparison submission.
type EntgeltvergleichPayload struct {
	EVUReihungen []EVUReihung `json:"evuReihungen"`
}

func (c *Client) Entgeltvergleich(ctx context.Context, kind GroupKind, id string, p EntgeltvergleichPayload) (ActionResult, error) {
	return action(c.Put(ctx, kind.path(id, "entgeltvergleich"), p))
}

// GebotEingabe is one submitted bid. Gebot is a JSON number.
type GebotEingabe struct {
	Anfrage string      `json:"anfrage"`
	Gebot   json.Number `json:"gebot"`
}

// HoechstpreisPayload is the body of the highest-price submission.
type HoechstpreisPayload struct {
	ListeGeboteHoechstpreis []GebotEingabe `json:"ListeGeboteHoechstpreis"`
}

func (c *Client) Hoechstpreis(ctx context.Context, kind GroupKind, id string, p HoechstpreisPayload) (ActionResult, error) {
	return action(c.Put(ctx, kind.path(id, "hoechstpreis-ergebnis"), p))
}
