package coordination

import slotsdk "slotconsole/sdk/go"

// Snapshot is everything a coordination view renders.
type Snapshot struct {
	GruppeID    string            `json:"gruppeId"`
	Kind        string            `json:"kind"`
	Status      string            `json:"status"`
	Phase       string            `json:"phase"`
	Identity    string            `json:"identity"`
	Summary     Summary           `json:"summary"`
	WaiversOpen bool              `json:"verzichtOffen"`
	ReorderOpen bool              `json:"entgeltvergleichOffen"`
	BiddingOpen bool              `json:"hoechstpreisOffen"`
	Anfragen    []slotsdk.Anfrage `json:"beteiligteAnfragen"`
	Waivers     []string          `json:"verzichte"`
	Quotas      []OperatorQuota   `json:"quoten"`
	Orderings   Orderings         `json:"reihungen"`
	Ranking     []RankRow         `json:"ranking"`
	Bids        []BidRow          `json:"gebote"`
	SlotsImTopf int               `json:"slotsImTopf"`
	QuotaLimit  int               `json:"quotenLimit"`

	// SlotCountKnown is false when the trigger pot came without its slots;
	// no quota applies then.
	SlotCountKnown bool `json:"slotsImTopfBekannt"`
}

// Snapshot returns the current view state.
func (c *Controller) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.loaded()
	if err != nil {
		return Snapshot{}, err
	}
	slots, known := TriggerSlotCount(*g)
	s := Snapshot{
		GruppeID:    g.ID,
		Kind:        string(c.kind),
		Status:      g.Status,
		Phase:       PhaseOf(g.Status).String(),
		Identity:    c.identity,
		Summary:     Summarize(*g),
		WaiversOpen: WaiversOpen(g.Status),
		ReorderOpen: ReorderOpen(g.Status),
		BiddingOpen: BiddingOpen(g.Status),
		Anfragen:    g.BeteiligteAnfragen,
		Waivers:     c.waiverList(),
		Quotas:      Quotas(*g),
		Orderings:   c.orderings.clone(),
		Ranking:     Ranking(*g),
		SlotsImTopf: slots,
		QuotaLimit:  QuotaLimit(slots),

		SlotCountKnown: known,
	}
	for _, a := range BidCandidates(*g) {
		s.Bids = append(s.Bids, bidRow(a, c.bids[a.ID]))
	}
	return s, nil
}
