package coordination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotconsole/internal/events"
	slotsdk "slotconsole/sdk/go"
)

type fakeGateway struct {
	mu       sync.Mutex
	group    slotsdk.KonfliktGruppe
	gets     int
	getFail  error
	fail     error
	block    chan struct{}
	entered  chan struct{}
	waivers  []slotsdk.VerzichtPayload
	fees     []slotsdk.EntgeltvergleichPayload
	bids     []slotsdk.HoechstpreisPayload
	analyses int
	after    func(g *slotsdk.KonfliktGruppe)
}

func (f *fakeGateway) GetGruppe(_ context.Context, _ slotsdk.GroupKind, _ string) (slotsdk.KonfliktGruppe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getFail != nil {
		return slotsdk.KonfliktGruppe{}, f.getFail
	}
	return f.group, nil
}

func (f *fakeGateway) VerschiebeAnalyse(context.Context, slotsdk.GroupKind, string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses++
	if f.fail != nil {
		return nil, f.fail
	}
	return json.RawMessage(`{"nachbarn":[]}`), nil
}

func (f *fakeGateway) Alternativen(context.Context, slotsdk.GroupKind, string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses++
	return json.RawMessage(`[]`), nil
}

func (f *fakeGateway) mutate(record func()) (slotsdk.ActionResult, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return slotsdk.ActionResult{}, f.fail
	}
	record()
	if f.after != nil {
		f.after(&f.group)
	}
	return slotsdk.ActionResult{Message: "Gespeichert."}, nil
}

func (f *fakeGateway) VerzichtVerschub(_ context.Context, _ slotsdk.GroupKind, _ string, p slotsdk.VerzichtPayload) (slotsdk.ActionResult, error) {
	return f.mutate(func() { f.waivers = append(f.waivers, p) })
}

func (f *fakeGateway) Entgeltvergleich(_ context.Context, _ slotsdk.GroupKind, _ string, p slotsdk.EntgeltvergleichPayload) (slotsdk.ActionResult, error) {
	return f.mutate(func() { f.fees = append(f.fees, p) })
}

func (f *fakeGateway) Hoechstpreis(_ context.Context, _ slotsdk.GroupKind, _ string, p slotsdk.HoechstpreisPayload) (slotsdk.ActionResult, error) {
	return f.mutate(func() { f.bids = append(f.bids, p) })
}

type memJournal struct {
	events []events.Event
}

func (j *memJournal) Append(_ context.Context, e events.Event) error {
	j.events = append(j.events, e)
	return nil
}

func anfrage(id, evu string) slotsdk.Anfrage {
	return slotsdk.Anfrage{ID: id, AnfrageIDSprechend: "A-" + id, EVU: evu, Verkehrsart: "SPFV"}
}

func potWithSlots(id string, n int) slotsdk.Kapazitaetstopf {
	t := slotsdk.Kapazitaetstopf{ID: id, TopfID: "TPF-" + id, Abschnitt: "X-Y", Verkehrstag: "Mo-Fr", Kalenderwoche: 3, Zeitfenster: "07-09", MaxKapazitaet: n}
	for i := 0; i < n; i++ {
		t.ListeDerSlots = append(t.ListeDerSlots, slotsdk.Ref[slotsdk.Slot](fmt.Sprintf("%s-s%d", id, i+1)))
	}
	return t
}

func potGroup(status string, slots int, anfragen ...slotsdk.Anfrage) slotsdk.KonfliktGruppe {
	topf := potWithSlots("t1", slots)
	return slotsdk.KonfliktGruppe{
		ID:                 "g1",
		Status:             status,
		BeteiligteAnfragen: anfragen,
		KonflikteInGruppe: []slotsdk.Konflikt{{
			ID:                          "k1",
			KonfliktTyp:                 slotsdk.KonfliktTypTopf,
			AusloesenderKapazitaetstopf: slotsdk.Of("t1", topf),
		}},
	}
}

func loaded(t *testing.T, gw *fakeGateway, opts Options) *Controller {
	t.Helper()
	c := New(gw, slotsdk.GroupKindTopf, gw.group.ID, opts)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func TestQuotaThreshold(t *testing.T) {
	assert.Equal(t, 5, QuotaLimit(10))
	assert.Equal(t, 1, QuotaLimit(2))
	assert.Equal(t, 0, QuotaLimit(1))
	assert.Equal(t, 0, QuotaLimit(0))

	var six []slotsdk.Anfrage
	for _, id := range []string{"a1", "a2", "a3", "a4", "a5", "a6"} {
		six = append(six, anfrage(id, "X"))
	}
	q := Quotas(potGroup(StatusInBearbeitungEntgelt, 10, six...))
	require.Len(t, q, 1)
	assert.True(t, q[0].Flagged)
	assert.Equal(t, 5, q[0].Limit)

	q = Quotas(potGroup(StatusInBearbeitungEntgelt, 10, six[:5]...))
	assert.False(t, q[0].Flagged)
}

func TestUnpopulatedTriggerPotFlagsNoOperator(t *testing.T) {
	g := potGroup(StatusInBearbeitungEntgelt, 0, anfrage("x1", "X"), anfrage("y1", "Y"))
	g.KonflikteInGruppe[0].AusloesenderKapazitaetstopf = slotsdk.Ref[slotsdk.Kapazitaetstopf]("t1")

	_, known := TriggerSlotCount(g)
	assert.False(t, known)
	for _, q := range Quotas(g) {
		assert.False(t, q.Flagged, q.EVU)
	}

	c := loaded(t, &fakeGateway{group: g}, Options{})
	assert.ErrorIs(t, c.MoveDown("X", 0), ErrSlotCountUnknown)
	assert.ErrorIs(t, c.Move("y1", -1), ErrSlotCountUnknown)
	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.False(t, snap.SlotCountKnown)
	assert.Equal(t, 0, snap.QuotaLimit)

	c = loaded(t, &fakeGateway{group: potGroup(StatusInBearbeitungEntgelt, 2, anfrage("x1", "X"))}, Options{})
	snap, err = c.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.SlotCountKnown)
	assert.Equal(t, 2, snap.SlotsImTopf)
}

func TestGroupByOperatorKeepsArrivalOrder(t *testing.T) {
	got := GroupByOperator([]slotsdk.Anfrage{anfrage("a1", "Y"), anfrage("a2", "X"), anfrage("a3", "Y")})
	require.Len(t, got, 2)
	assert.Equal(t, "Y", got[0].EVU)
	assert.Equal(t, []string{"a1", "a3"}, got[0].IDs)
	assert.Equal(t, []string{"a2"}, got[1].IDs)
}

func TestReorderSwapsAdjacentEntries(t *testing.T) {
	gw := &fakeGateway{group: potGroup(StatusInBearbeitungEntgelt, 2, anfrage("A", "X"), anfrage("B", "X"), anfrage("C", "X"))}
	c := loaded(t, gw, Options{})

	require.NoError(t, c.MoveUp("X", 0))
	assert.Equal(t, []string{"A", "B", "C"}, c.Orderings()["X"])

	require.NoError(t, c.MoveDown("X", 0))
	assert.Equal(t, []string{"B", "A", "C"}, c.Orderings()["X"])

	require.NoError(t, c.MoveDown("X", 2))
	assert.Equal(t, []string{"B", "A", "C"}, c.Orderings()["X"])

	require.NoError(t, c.Move("C", -1))
	assert.Equal(t, []string{"B", "C", "A"}, c.Orderings()["X"])

	assert.ErrorIs(t, c.MoveUp("Z", 1), ErrUnknownRequest)
	assert.ErrorIs(t, c.Move("zz", 1), ErrUnknownRequest)
}

func TestMoveResolvesAgainstCurrentOrderings(t *testing.T) {
	gw := &fakeGateway{group: potGroup(StatusInBearbeitungEntgelt, 2, anfrage("A", "X"), anfrage("B", "X"))}
	c := loaded(t, gw, Options{})

	gw.mu.Lock()
	gw.group = potGroup(StatusInBearbeitungEntgelt, 2, anfrage("C", "X"), anfrage("D", "X"), anfrage("A", "X"))
	gw.mu.Unlock()
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Move("A", -1))
	assert.Equal(t, []string{"C", "A", "D"}, c.Orderings()["X"])

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Load(context.Background())
		}()
		go func() {
			defer wg.Done()
			_ = c.Move("A", 1)
		}()
	}
	wg.Wait()
	assert.ElementsMatch(t, []string{"A", "C", "D"}, c.Orderings()["X"])
}

func TestReorderRequiresFlaggedOperatorAndOpenPhase(t *testing.T) {
	gw := &fakeGateway{group: potGroup(StatusInBearbeitungEntgelt, 10, anfrage("A", "X"), anfrage("B", "X"))}
	c := loaded(t, gw, Options{})
	assert.ErrorIs(t, c.MoveDown("X", 0), ErrWithinQuota)

	gw = &fakeGateway{group: potGroup(StatusInBearbeitungVerzicht, 2, anfrage("A", "X"), anfrage("B", "X"))}
	c = loaded(t, gw, Options{})
	assert.ErrorIs(t, c.MoveDown("X", 0), ErrPhaseClosed)
}

func TestWaiverSubmissionAndPhaseGate(t *testing.T) {
	gw := &fakeGateway{group: potGroup(StatusOffen, 2, anfrage("a1", "X"), anfrage("a2", "Y"), anfrage("a3", "Y"))}
	j := &memJournal{}
	c := loaded(t, gw, Options{Journal: j})

	on, err := c.ToggleWaiver("a3")
	require.NoError(t, err)
	assert.True(t, on)
	_, err = c.ToggleWaiver("a1")
	require.NoError(t, err)
	on, err = c.ToggleWaiver("a1")
	require.NoError(t, err)
	assert.False(t, on)
	_, err = c.ToggleWaiver("zz")
	assert.ErrorIs(t, err, ErrUnknownRequest)
	_, _ = c.ToggleWaiver("a2")

	assert.True(t, c.CanSubmitWaivers())
	gw.after = func(g *slotsdk.KonfliktGruppe) { g.Status = StatusInBearbeitungEntgelt }
	fb := c.SubmitWaivers(context.Background())
	require.True(t, fb.OK(), fb.Message)
	assert.Equal(t, "Gespeichert.", fb.Message)
	require.Len(t, gw.waivers, 1)
	assert.Equal(t, []string{"a2", "a3"}, gw.waivers[0].ListeAnfragenMitVerzicht)

	// the refetched group replaces all input
	assert.Empty(t, c.Waivers())
	assert.False(t, c.CanSubmitWaivers())
	fb = c.SubmitWaivers(context.Background())
	assert.ErrorIs(t, fb.Err, ErrPhaseClosed)
	assert.Len(t, gw.waivers, 1)

	require.Len(t, j.events, 1)
	assert.Equal(t, events.TypeWaiversSubmitted, j.events[0].Type)
	assert.NotEmpty(t, j.events[0].RequestID)
}

func TestFailedSubmissionKeepsInput(t *testing.T) {
	gw := &fakeGateway{group: potGroup(StatusOffen, 2, anfrage("a1", "X"), anfrage("a2", "X"))}
	c := loaded(t, gw, Options{})
	_, err := c.ToggleWaiver("a1")
	require.NoError(t, err)

	gw.fail = &slotsdk.APIError{StatusCode: 500}
	fb := c.SubmitWaivers(context.Background())
	assert.False(t, fb.OK())
	assert.Equal(t, "Fehler beim Verarbeiten der Verzichte.", fb.Message)
	assert.Equal(t, []string{"a1"}, c.Waivers())
	assert.Equal(t, 1, gw.gets)

	gw.fail = &slotsdk.APIError{StatusCode: 409, Message: "Gruppe ist gesperrt"}
	fb = c.SubmitWaivers(context.Background())
	assert.Equal(t, "Gruppe ist gesperrt", fb.Message)
	assert.Equal(t, []string{"a1"}, c.Waivers())
}

func TestRefetchFailureAfterSuccessReportsError(t *testing.T) {
	gw := &fakeGateway{group: potGroup(StatusOffen, 2, anfrage("a1", "X"), anfrage("a2", "X"))}
	c := loaded(t, gw, Options{})
	_, err := c.ToggleWaiver("a1")
	require.NoError(t, err)

	gw.getFail = errors.New("connection reset")
	fb := c.SubmitWaivers(context.Background())
	assert.False(t, fb.OK())
	assert.ErrorIs(t, fb.Err, gw.getFail)
	assert.Equal(t, "Gespeichert. "+LoadFailedMessage, fb.Message)
	require.Len(t, gw.waivers, 1)
	assert.Empty(t, c.Waivers())
}

func TestAnalysisDoesNotRefetchOrTouchInput(t *testing.T) {
	gw := &fakeGateway{group: potGroup(StatusOffen, 2, anfrage("a1", "X"), anfrage("a2", "X"))}
	c := loaded(t, gw, Options{})
	_, _ = c.ToggleWaiver("a2")
	before, err := c.Snapshot()
	require.NoError(t, err)

	res, fb := c.Analyse(context.Background(), AnalyseVerschiebung)
	require.True(t, fb.OK())
	assert.Equal(t, "Ergebnis: verschiebe-Analyse", res.Title)
	assert.JSONEq(t, `{"nachbarn":[]}`, string(res.Data))
	assert.Equal(t, 1, gw.gets)

	// reloading an unchanged group keeps derived state
	require.NoError(t, c.Load(context.Background()))
	after, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	gw.fail = errors.New("boom")
	_, fb = c.Analyse(context.Background(), AnalyseVerschiebung)
	assert.Equal(t, "Fehler bei der verschiebe-Analyse.", fb.Message)
}

func TestIdentityChangeRebuildsOrderings(t *testing.T) {
	gw := &fakeGateway{group: potGroup(StatusInBearbeitungEntgelt, 2, anfrage("A", "X"), anfrage("B", "X"))}
	c := loaded(t, gw, Options{})
	first := c.Identity()
	require.NoError(t, c.MoveDown("X", 0))

	gw.group.BeteiligteAnfragen = append(gw.group.BeteiligteAnfragen, anfrage("C", "X"))
	require.NoError(t, c.Load(context.Background()))
	assert.NotEqual(t, first, c.Identity())
	assert.Equal(t, []string{"A", "B", "C"}, c.Orderings()["X"])
}

func TestSecondActionWhileRunningIsBusy(t *testing.T) {
	gw := &fakeGateway{group: potGroup(StatusOffen, 2, anfrage("a1", "X"))}
	c := loaded(t, gw, Options{})
	gw.block = make(chan struct{})
	gw.entered = make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		c.SubmitWaivers(context.Background())
		close(done)
	}()
	<-gw.entered

	fb := c.SubmitWaivers(context.Background())
	assert.ErrorIs(t, fb.Err, ErrBusy)
	_, fb = c.Analyse(context.Background(), AnalyseAlternativen)
	assert.ErrorIs(t, fb.Err, ErrBusy)

	close(gw.block)
	<-done
	assert.Len(t, gw.waivers, 1)
}

func TestActionsBeforeLoad(t *testing.T) {
	c := New(&fakeGateway{}, slotsdk.GroupKindTopf, "g1", Options{})
	_, err := c.ToggleWaiver("a1")
	assert.ErrorIs(t, err, ErrNotLoaded)
	fb := c.SubmitBids(context.Background())
	assert.ErrorIs(t, fb.Err, ErrNotLoaded)
	_, err = c.Snapshot()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func bidGroup() slotsdk.KonfliktGruppe {
	slotIn := slotsdk.Slot{ID: "s1", VerweisAufTopf: slotsdk.Ref[slotsdk.Kapazitaetstopf]("t1")}
	slotOut := slotsdk.Slot{ID: "s2", VerweisAufTopf: slotsdk.Ref[slotsdk.Kapazitaetstopf]("t9")}
	a1 := anfrage("a1", "X")
	a1.Entgelt = decimal.NewNullDecimal(decimal.NewFromInt(100))
	a1.ZugewieseneSlots = []slotsdk.Zuweisung{{Slot: slotsdk.Of("s1", slotIn), StatusEinzelzuweisung: WartetHoechstpreisTopf}}
	a2 := anfrage("a2", "Y")
	a2.Entgelt = decimal.NewNullDecimal(decimal.NewFromInt(100))
	a2.ZugewieseneSlots = []slotsdk.Zuweisung{{Slot: slotsdk.Of("s1", slotIn), StatusEinzelzuweisung: WartetHoechstpreisTopf}}
	a3 := anfrage("a3", "Z")
	a3.ZugewieseneSlots = []slotsdk.Zuweisung{{Slot: slotsdk.Of("s2", slotOut), StatusEinzelzuweisung: WartetHoechstpreisTopf}}
	a4 := anfrage("a4", "Z")
	a4.ZugewieseneSlots = []slotsdk.Zuweisung{{Slot: slotsdk.Of("s1", slotIn), StatusEinzelzuweisung: "bestaetigt"}}
	return potGroup(StatusInBearbeitungHoechstpreis, 2, a1, a2, a3, a4)
}

func TestBidCandidatesAndSubmission(t *testing.T) {
	gw := &fakeGateway{group: bidGroup()}
	c := loaded(t, gw, Options{})

	var ids []string
	for _, a := range c.Candidates() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "a2"}, ids)

	require.NoError(t, c.SetBid("a1", "100"))
	row, err := c.BidState("a1")
	require.NoError(t, err)
	assert.True(t, row.NotAboveFee)

	require.NoError(t, c.SetBid("a1", "150,5"))
	row, _ = c.BidState("a1")
	assert.False(t, row.NotAboveFee)
	assert.Equal(t, "150.5", row.Gebot)

	row, _ = c.BidState("a2")
	assert.False(t, row.NotAboveFee)

	assert.ErrorIs(t, c.SetBid("a3", "10"), ErrUnknownRequest)
	assert.Error(t, c.SetBid("a2", "abc"))

	fb := c.SubmitBids(context.Background())
	require.True(t, fb.OK())
	require.Len(t, gw.bids, 1)
	assert.Equal(t, []slotsdk.GebotEingabe{
		{Anfrage: "a1", Gebot: json.Number("150.5")},
		{Anfrage: "a2", Gebot: json.Number("0")},
	}, gw.bids[0].ListeGeboteHoechstpreis)
}

func TestBidCandidatesForSlotGroups(t *testing.T) {
	trigger := slotsdk.Slot{ID: "s1", SlotIDSprechend: "SLT-1", VerweisAufTopf: slotsdk.Of("t1", potWithSlots("t1", 4))}
	a1 := anfrage("a1", "X")
	a1.ZugewieseneSlots = []slotsdk.Zuweisung{{Slot: slotsdk.Ref[slotsdk.Slot]("s1"), StatusEinzelzuweisung: WartetHoechstpreisSlot}}
	a2 := anfrage("a2", "X")
	a2.ZugewieseneSlots = []slotsdk.Zuweisung{{Slot: slotsdk.Ref[slotsdk.Slot]("s1"), StatusEinzelzuweisung: WartetHoechstpreisTopf}}
	g := slotsdk.KonfliktGruppe{
		ID:                 "sg1",
		Status:             StatusInBearbeitungHoechstpreis,
		BeteiligteAnfragen: []slotsdk.Anfrage{a1, a2},
		KonflikteInGruppe:  []slotsdk.Konflikt{{KonfliktTyp: slotsdk.KonfliktTypSlot, AusloesenderSlot: slotsdk.Of("s1", trigger)}},
	}
	got := BidCandidates(g)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
	slots, known := TriggerSlotCount(g)
	assert.True(t, known)
	assert.Equal(t, 4, slots)
	assert.Equal(t, 2, QuotaLimit(slots))

	g.KonflikteInGruppe[0].AusloesenderSlot = slotsdk.Of("s1", slotsdk.Slot{ID: "s1", VerweisAufTopf: slotsdk.Ref[slotsdk.Kapazitaetstopf]("t1")})
	_, known = TriggerSlotCount(g)
	assert.False(t, known)
}

func TestBidCandidatesWithBareSlotRefs(t *testing.T) {
	a1 := anfrage("a1", "X")
	a1.ZugewieseneSlots = []slotsdk.Zuweisung{{Slot: slotsdk.Ref[slotsdk.Slot]("t1-s2"), StatusEinzelzuweisung: WartetHoechstpreisTopf}}
	a2 := anfrage("a2", "Y")
	a2.ZugewieseneSlots = []slotsdk.Zuweisung{{Slot: slotsdk.Ref[slotsdk.Slot]("t9-s1"), StatusEinzelzuweisung: WartetHoechstpreisTopf}}
	a3 := anfrage("a3", "Y")
	a3.ZugewieseneSlots = []slotsdk.Zuweisung{{Slot: slotsdk.Ref[slotsdk.Slot]("t1-s1"), StatusEinzelzuweisung: WartetHoechstpreisTopf}}
	gw := &fakeGateway{group: potGroup(StatusInBearbeitungHoechstpreis, 2, a1, a2, a3)}
	c := loaded(t, gw, Options{})

	var ids []string
	for _, a := range c.Candidates() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "a3"}, ids)

	require.NoError(t, c.SetBid("a3", "80"))
	fb := c.SubmitBids(context.Background())
	require.True(t, fb.OK(), fb.Message)
	require.Len(t, gw.bids, 1)
	assert.Equal(t, []slotsdk.GebotEingabe{
		{Anfrage: "a1", Gebot: json.Number("0")},
		{Anfrage: "a3", Gebot: json.Number("80")},
	}, gw.bids[0].ListeGeboteHoechstpreis)
}

func TestSummarize(t *testing.T) {
	g := potGroup(StatusOffen, 2, anfrage("a1", "X"), anfrage("a2", "Y"))
	second := potWithSlots("t2", 3)
	second.Kalenderwoche = 2
	second.Zeitfenster = "09-11"
	g.KonflikteInGruppe = append(g.KonflikteInGruppe, slotsdk.Konflikt{ID: "k2", KonfliktTyp: slotsdk.KonfliktTypTopf, AusloesenderKapazitaetstopf: slotsdk.Of("t2", second)})

	s := Summarize(g)
	assert.Equal(t, slotsdk.KonfliktTypTopf, s.KonfliktTyp)
	assert.Equal(t, 2, s.AnzahlToepfe)
	assert.Equal(t, []int{2, 3}, s.Kalenderwochen)
	assert.Equal(t, "2, 3", s.KalenderwochenText())
	assert.Equal(t, []string{"Mo-Fr"}, s.Verkehrstage)
	assert.Equal(t, []string{"X-Y"}, s.Abschnitte)
	assert.Equal(t, []string{"07-09", "09-11"}, s.Zeitfenster)
	assert.Equal(t, "SPFV", s.Verkehrsart)

	mixed := anfrage("a3", "Z")
	mixed.Verkehrsart = "SGV"
	g.BeteiligteAnfragen = append(g.BeteiligteAnfragen, mixed)
	assert.Equal(t, AlleVerkehrsarten, Summarize(g).Verkehrsart)
}

func TestRankingSortedWithStableTies(t *testing.T) {
	g := potGroup(StatusInBearbeitungHoechstpreis, 2, anfrage("a1", "X"), anfrage("a2", "Y"), anfrage("a3", "Z"))
	g.KonflikteInGruppe[0].ReihungEntgelt = []slotsdk.Reihung{
		{Rang: 2, Anfrage: slotsdk.Ref[slotsdk.Anfrage]("a3")},
		{Rang: 1, Anfrage: slotsdk.Ref[slotsdk.Anfrage]("a2")},
		{Rang: 1, Anfrage: slotsdk.Ref[slotsdk.Anfrage]("a1")},
	}
	r := Ranking(g)
	require.Len(t, r, 3)
	assert.Equal(t, []string{"a2", "a1", "a3"}, []string{r[0].AnfrageID, r[1].AnfrageID, r[2].AnfrageID})
	assert.Equal(t, "Y", r[0].EVU)
	assert.Equal(t, "A-a2", r[0].Sprechend)
}

func TestPhaseMapping(t *testing.T) {
	assert.Equal(t, PhaseVerzicht, PhaseOf(StatusOffen))
	assert.Equal(t, PhaseEntgelt, PhaseOf(StatusInBearbeitungEntgelt))
	assert.Equal(t, PhaseHoechstpreis, PhaseOf(StatusInBearbeitungHoechstpreis))
	assert.Equal(t, PhaseAbgeschlossen, PhaseOf(StatusFinalAbgelehnt))
	assert.True(t, WaiversOpen(StatusFinalAbgelehnt))
	assert.False(t, WaiversOpen(StatusTeilweiseGeloest))
}
