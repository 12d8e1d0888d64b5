// Package coordination drives the three-phase resolution of one conflict
// group: waivers, fee comparison and highest-price bidding. The controller
// never sets a group status itself; it issues phase commands against the
// backend and refetches the group afterwards.
package coordination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"slotconsole/internal/collection"
	"slotconsole/internal/events"
	"slotconsole/internal/repo"
	slotsdk "slotconsole/sdk/go"
)

// Gateway is the part of the backend client the controller talks to.
type Gateway interface {
	GetGruppe(ctx context.Context, kind slotsdk.GroupKind, id string) (slotsdk.KonfliktGruppe, error)
	VerschiebeAnalyse(ctx context.Context, kind slotsdk.GroupKind, id string) (json.RawMessage, error)
	Alternativen(ctx context.Context, kind slotsdk.GroupKind, id string) (json.RawMessage, error)
	VerzichtVerschub(ctx context.Context, kind slotsdk.GroupKind, id string, p slotsdk.VerzichtPayload) (slotsdk.ActionResult, error)
	Entgeltvergleich(ctx context.Context, kind slotsdk.GroupKind, id string, p slotsdk.EntgeltvergleichPayload) (slotsdk.ActionResult, error)
	Hoechstpreis(ctx context.Context, kind slotsdk.GroupKind, id string, p slotsdk.HoechstpreisPayload) (slotsdk.ActionResult, error)
}

// DraftStore persists unsent input between invocations.
type DraftStore interface {
	GetDraft(ctx context.Context, kind, groupID string) (repo.Draft, error)
	SaveDraft(ctx context.Context, d repo.Draft) error
	DeleteDraft(ctx context.Context, kind, groupID string) error
}

// Journal records submitted actions.
type Journal interface {
	Append(ctx context.Context, e events.Event) error
}

// User-facing texts.
const (
	LoadFailedMessage  = "Konfliktgruppe konnte nicht geladen werden."
	BusyMessage        = "Es wird bereits eine Aktion ausgeführt."
	PhaseClosedMessage = "Diese Phase ist für den aktuellen Gruppenstatus nicht aktiv."
	waiverFallback     = "Fehler beim Verarbeiten der Verzichte."
	feeFallback        = "Fehler beim Entgeltvergleich."
	bidFallback        = "Fehler beim Einreichen der Höchstpreis-Gebote."
)

var identityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("slotconsole/konfliktgruppe"))

// Identity fingerprints the parts of a group that derived input depends on:
// its id, status and participating requests.
func Identity(g slotsdk.KonfliktGruppe) string {
	var b strings.Builder
	b.WriteString(g.ID)
	b.WriteByte(0)
	b.WriteString(g.Status)
	for _, a := range g.BeteiligteAnfragen {
		b.WriteByte(0)
		b.WriteString(a.ID)
	}
	return uuid.NewSHA1(identityNamespace, []byte(b.String())).String()
}

type Options struct {
	Drafts  DraftStore
	Journal Journal
	Logger  logrus.FieldLogger
}

// Controller holds the state of one group being coordinated.
type Controller struct {
	gw      Gateway
	kind    slotsdk.GroupKind
	id      string
	drafts  DraftStore
	journal Journal
	log     logrus.FieldLogger

	busy atomic.Bool

	mu        sync.Mutex
	group     *slotsdk.KonfliktGruppe
	identity  string
	waivers   map[string]bool
	orderings Orderings
	bids      map[string]string
}

func New(gw Gateway, kind slotsdk.GroupKind, id string, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		gw:      gw,
		kind:    kind,
		id:      id,
		drafts:  opts.Drafts,
		journal: opts.Journal,
		log:     log.WithFields(logrus.Fields{"group_id": id, "group_kind": string(kind)}),
	}
}

// Load fetches the group. Derived input is rebuilt only when the group's
// identity changed; a stored draft is restored when it matches.
func (c *Controller) Load(ctx context.Context) error {
	g, err := c.gw.GetGruppe(ctx, c.kind, c.id)
	if err != nil {
		c.log.WithError(err).Warn("load group failed")
		return fmt.Errorf("load group %s: %w", c.id, err)
	}
	c.mu.Lock()
	c.replace(g, false)
	c.mu.Unlock()
	c.restoreDraft(ctx)
	return nil
}

// replace installs g. Input is reset when forced or when the identity moved.
// Callers hold mu.
func (c *Controller) replace(g slotsdk.KonfliktGruppe, force bool) {
	next := Identity(g)
	c.group = &g
	if !force && next == c.identity && c.orderings != nil {
		return
	}
	c.identity = next
	c.waivers = map[string]bool{}
	c.orderings = newOrderings(GroupByOperator(g.BeteiligteAnfragen))
	c.bids = map[string]string{}
	c.log.WithFields(logrus.Fields{"phase": PhaseOf(g.Status).String(), "identity": next}).Debug("group state rebuilt")
}

func (c *Controller) loaded() (*slotsdk.KonfliktGruppe, error) {
	if c.group == nil {
		return nil, ErrNotLoaded
	}
	return c.group, nil
}

// Group returns the last fetched group.
func (c *Controller) Group() (slotsdk.KonfliktGruppe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.loaded()
	if err != nil {
		return slotsdk.KonfliktGruppe{}, err
	}
	return *g, nil
}

// Identity returns the identity of the loaded group.
func (c *Controller) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// --- phase 1 ---

// ToggleWaiver flips the waiver mark of a participating request and reports
// the new state.
func (c *Controller) ToggleWaiver(anfrageID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.loaded()
	if err != nil {
		return false, err
	}
	if !participates(*g, anfrageID) {
		return false, fmt.Errorf("%w: %s", ErrUnknownRequest, anfrageID)
	}
	if c.waivers[anfrageID] {
		delete(c.waivers, anfrageID)
		return false, nil
	}
	c.waivers[anfrageID] = true
	return true, nil
}

// Waivers returns the waived ids in participant order.
func (c *Controller) Waivers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiverList()
}

func (c *Controller) waiverList() []string {
	if c.group == nil {
		return nil
	}
	out := []string{}
	for _, a := range c.group.BeteiligteAnfragen {
		if c.waivers[a.ID] {
			out = append(out, a.ID)
		}
	}
	return out
}

// CanSubmitWaivers reports whether the waiver step is open.
func (c *Controller) CanSubmitWaivers() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.group != nil && WaiversOpen(c.group.Status)
}

// SubmitWaivers sends the waiver set and refetches on success.
func (c *Controller) SubmitWaivers(ctx context.Context) collection.Feedback {
	return c.submit(ctx, events.TypeWaiversSubmitted, waiverFallback, func(g slotsdk.KonfliktGruppe) (func(context.Context) (slotsdk.ActionResult, error), events.EventPayload, error) {
		if !WaiversOpen(g.Status) {
			return nil, nil, ErrPhaseClosed
		}
		p := slotsdk.VerzichtPayload{ListeAnfragenMitVerzicht: c.waiverList()}
		return func(ctx context.Context) (slotsdk.ActionResult, error) {
			return c.gw.VerzichtVerschub(ctx, c.kind, c.id, p)
		}, events.EventPayload{"verzichte": p.ListeAnfragenMitVerzicht}, nil
	})
}

// AnalyseKind selects a read-only analysis.
type AnalyseKind string

const (
	AnalyseVerschiebung AnalyseKind = "verschiebe"
	AnalyseAlternativen AnalyseKind = "alternativen"
)

// ParseAnalyseKind accepts "verschiebe" and "alternativen".
func ParseAnalyseKind(s string) (AnalyseKind, error) {
	switch AnalyseKind(s) {
	case AnalyseVerschiebung, AnalyseAlternativen:
		return AnalyseKind(s), nil
	}
	return "", fmt.Errorf("unknown analysis %q (want verschiebe or alternativen)", s)
}

// Analysis is a raw analysis result with its title.
type Analysis struct {
	Title string          `json:"title"`
	Data  json.RawMessage `json:"data"`
}

// Analyse runs a read-only analysis. The group is not refetched.
func (c *Controller) Analyse(ctx context.Context, kind AnalyseKind) (Analysis, collection.Feedback) {
	if !c.busy.CompareAndSwap(false, true) {
		return Analysis{}, collection.Feedback{Message: BusyMessage, Err: ErrBusy}
	}
	defer c.busy.Store(false)

	reqID := uuid.NewString()
	ctx = slotsdk.WithRequestID(ctx, reqID)
	var (
		data json.RawMessage
		err  error
	)
	if kind == AnalyseAlternativen {
		data, err = c.gw.Alternativen(ctx, c.kind, c.id)
	} else {
		data, err = c.gw.VerschiebeAnalyse(ctx, c.kind, c.id)
	}
	if err != nil {
		msg := fmt.Sprintf("Fehler bei der %s-Analyse.", kind)
		c.log.WithError(err).WithField("request_id", reqID).Warn("analysis failed")
		c.record(ctx, events.TypeAnalysis, reqID, events.OutcomeFailed, msg, events.EventPayload{"analyse": string(kind)})
		return Analysis{}, collection.Feedback{Message: slotsdk.MessageOr(err, msg), Err: err}
	}
	return Analysis{Title: fmt.Sprintf("Ergebnis: %s-Analyse", kind), Data: data}, collection.Feedback{}
}

// --- phase 2 ---

// Quotas returns the operator shares of the loaded group.
func (c *Controller) Quotas() []OperatorQuota {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.group == nil {
		return nil
	}
	return Quotas(*c.group)
}

// Orderings returns a copy of the operator orderings.
func (c *Controller) Orderings() Orderings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderings.clone()
}

// MoveUp moves the entry at index i of an operator's ordering one up.
func (c *Controller) MoveUp(evu string, i int) error { return c.move(atIndex(evu, i), -1) }

// MoveDown moves the entry at index i of an operator's ordering one down.
func (c *Controller) MoveDown(evu string, i int) error { return c.move(atIndex(evu, i), +1) }

// Move locates a request in the orderings and moves it by delta.
func (c *Controller) Move(anfrageID string, delta int) error {
	return c.move(func(o Orderings) (string, int, error) {
		for evu, ids := range o {
			for i, id := range ids {
				if id == anfrageID {
					return evu, i, nil
				}
			}
		}
		return "", -1, fmt.Errorf("%w: %s", ErrUnknownRequest, anfrageID)
	}, delta)
}

func atIndex(evu string, i int) func(Orderings) (string, int, error) {
	return func(o Orderings) (string, int, error) {
		if _, ok := o[evu]; !ok {
			return "", -1, fmt.Errorf("%w: operator %s", ErrUnknownRequest, evu)
		}
		return evu, i, nil
	}
}

// move resolves the entry and swaps it under one hold of mu.
func (c *Controller) move(locate func(Orderings) (string, int, error), delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.loaded()
	if err != nil {
		return err
	}
	if !ReorderOpen(g.Status) {
		return ErrPhaseClosed
	}
	evu, i, err := locate(c.orderings)
	if err != nil {
		return err
	}
	slots, known := TriggerSlotCount(*g)
	if !known {
		return ErrSlotCountUnknown
	}
	ids := c.orderings[evu]
	if len(ids) <= QuotaLimit(slots) {
		return fmt.Errorf("%w: %s", ErrWithinQuota, evu)
	}
	swap(ids, i, delta)
	return nil
}

// Ranking exposes the backend's fee ranking.
func (c *Controller) Ranking() []RankRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.group == nil {
		return nil
	}
	return Ranking(*c.group)
}

// SubmitFeeComparison sends every operator's ids in the confirmed order.
func (c *Controller) SubmitFeeComparison(ctx context.Context) collection.Feedback {
	return c.submit(ctx, events.TypeFeesSubmitted, feeFallback, func(g slotsdk.KonfliktGruppe) (func(context.Context) (slotsdk.ActionResult, error), events.EventPayload, error) {
		if !ReorderOpen(g.Status) {
			return nil, nil, ErrPhaseClosed
		}
		var p slotsdk.EntgeltvergleichPayload
		for _, q := range GroupByOperator(g.BeteiligteAnfragen) {
			p.EVUReihungen = append(p.EVUReihungen, slotsdk.EVUReihung{
				EVU:        q.EVU,
				AnfrageIDs: append([]string(nil), c.orderings[q.EVU]...),
			})
		}
		return func(ctx context.Context) (slotsdk.ActionResult, error) {
			return c.gw.Entgeltvergleich(ctx, c.kind, c.id, p)
		}, events.EventPayload{"evuReihungen": p.EVUReihungen}, nil
	})
}

// --- phase 3 ---

// Candidates returns the requests that may bid.
func (c *Controller) Candidates() []slotsdk.Anfrage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.group == nil {
		return nil
	}
	return BidCandidates(*c.group)
}

func (c *Controller) candidate(anfrageID string) (slotsdk.Anfrage, error) {
	g, err := c.loaded()
	if err != nil {
		return slotsdk.Anfrage{}, err
	}
	for _, a := range BidCandidates(*g) {
		if a.ID == anfrageID {
			return a, nil
		}
	}
	return slotsdk.Anfrage{}, fmt.Errorf("%w: %s", ErrUnknownRequest, anfrageID)
}

// SetBid stores the bid input of a candidate. An empty value clears it.
func (c *Controller) SetBid(anfrageID, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.loaded()
	if err != nil {
		return err
	}
	if !BiddingOpen(g.Status) {
		return ErrPhaseClosed
	}
	if _, err := c.candidate(anfrageID); err != nil {
		return err
	}
	bid, err := parseBid(raw)
	if err != nil {
		return err
	}
	if bid == "" {
		delete(c.bids, anfrageID)
		return nil
	}
	c.bids[anfrageID] = bid
	return nil
}

// ClearBid removes a candidate's bid.
func (c *Controller) ClearBid(anfrageID string) error {
	return c.SetBid(anfrageID, "")
}

// BidState returns the input row of one candidate.
func (c *Controller) BidState(anfrageID string) (BidRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, err := c.candidate(anfrageID)
	if err != nil {
		return BidRow{}, err
	}
	return bidRow(a, c.bids[anfrageID]), nil
}

// Bids returns the input rows of all candidates.
func (c *Controller) Bids() []BidRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.group == nil {
		return nil
	}
	var out []BidRow
	for _, a := range BidCandidates(*c.group) {
		out = append(out, bidRow(a, c.bids[a.ID]))
	}
	return out
}

// SubmitBids sends one bid per candidate; missing bids are sent as 0.
func (c *Controller) SubmitBids(ctx context.Context) collection.Feedback {
	return c.submit(ctx, events.TypeBidsSubmitted, bidFallback, func(g slotsdk.KonfliktGruppe) (func(context.Context) (slotsdk.ActionResult, error), events.EventPayload, error) {
		if !BiddingOpen(g.Status) {
			return nil, nil, ErrPhaseClosed
		}
		p := slotsdk.HoechstpreisPayload{ListeGeboteHoechstpreis: []slotsdk.GebotEingabe{}}
		for _, a := range BidCandidates(g) {
			bid := c.bids[a.ID]
			if bid == "" {
				bid = "0"
			}
			p.ListeGeboteHoechstpreis = append(p.ListeGeboteHoechstpreis, slotsdk.GebotEingabe{Anfrage: a.ID, Gebot: json.Number(bid)})
		}
		return func(ctx context.Context) (slotsdk.ActionResult, error) {
			return c.gw.Hoechstpreis(ctx, c.kind, c.id, p)
		}, events.EventPayload{"gebote": len(p.ListeGeboteHoechstpreis)}, nil
	})
}

// --- shared ---

type prepareFunc func(g slotsdk.KonfliktGruppe) (func(context.Context) (slotsdk.ActionResult, error), events.EventPayload, error)

// submit runs one phase command. Only one command runs at a time. Failures
// leave all input untouched; success refetches the group, which replaces the
// input, and drops the stored draft. A failed refetch after a successful
// action is reported as an error.
func (c *Controller) submit(ctx context.Context, evtType, fallback string, prepare prepareFunc) collection.Feedback {
	if !c.busy.CompareAndSwap(false, true) {
		return collection.Feedback{Message: BusyMessage, Err: ErrBusy}
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	g, err := c.loaded()
	if err != nil {
		c.mu.Unlock()
		return collection.Feedback{Message: LoadFailedMessage, Err: err}
	}
	call, payload, err := prepare(*g)
	c.mu.Unlock()
	if errors.Is(err, ErrPhaseClosed) {
		return collection.Feedback{Message: PhaseClosedMessage, Err: err}
	}
	if err != nil {
		return collection.Feedback{Message: fallback, Err: err}
	}

	reqID := uuid.NewString()
	ctx = slotsdk.WithRequestID(ctx, reqID)
	log := c.log.WithFields(logrus.Fields{"request_id": reqID, "action": evtType})
	res, err := call(ctx)
	if err != nil {
		msg := slotsdk.MessageOr(err, fallback)
		log.WithError(err).Warn("action failed")
		c.record(ctx, evtType, reqID, events.OutcomeFailed, msg, payload)
		return collection.Feedback{Message: msg, Err: err}
	}
	msg := res.Message
	if msg == "" {
		msg = collection.DoneMessage
	}
	log.Info("action done")
	c.record(ctx, evtType, reqID, events.OutcomeOK, msg, payload)

	if c.drafts != nil {
		if err := c.drafts.DeleteDraft(ctx, string(c.kind), c.id); err != nil {
			log.WithError(err).Warn("delete draft failed")
		}
	}
	fresh, err := c.gw.GetGruppe(ctx, c.kind, c.id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		log.WithError(err).Warn("refetch failed")
		c.replace(*c.group, true)
		return collection.Feedback{Message: msg + " " + LoadFailedMessage, Err: fmt.Errorf("refetch group %s: %w", c.id, err)}
	}
	c.replace(fresh, true)
	return collection.Feedback{Message: msg}
}

func (c *Controller) record(ctx context.Context, evtType, reqID, outcome, msg string, payload events.EventPayload) {
	if c.journal == nil {
		return
	}
	err := c.journal.Append(ctx, events.Event{
		Type:       evtType,
		EntityKind: "konfliktgruppe",
		EntityID:   c.id,
		RequestID:  reqID,
		Outcome:    outcome,
		Message:    msg,
		Payload:    payload,
	})
	if err != nil {
		c.log.WithError(err).Warn("journal append failed")
	}
}

func participates(g slotsdk.KonfliktGruppe, anfrageID string) bool {
	for _, a := range g.BeteiligteAnfragen {
		if a.ID == anfrageID {
			return true
		}
	}
	return false
}
