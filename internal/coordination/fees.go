package coordination

import (
	"sort"

	"github.com/shopspring/decimal"

	slotsdk "slotconsole/sdk/go"
)

// quotaPercent is the share of a pot's slots one operator may hold.
const quotaPercent = 56

// QuotaLimit is floor(0.56 * slots) in integer arithmetic.
func QuotaLimit(slots int) int {
	if slots <= 0 {
		return 0
	}
	return slots * quotaPercent / 100
}

// OperatorQuota is one operator's share of the group.
type OperatorQuota struct {
	EVU     string   `json:"evu"`
	IDs     []string `json:"anfrageIds"`
	Count   int      `json:"anzahl"`
	Limit   int      `json:"limit"`
	Flagged bool     `json:"ueberQuote"`
}

// GroupByOperator groups requests by EVU. Operators and their ids keep the
// order in which the requests arrive.
func GroupByOperator(anfragen []slotsdk.Anfrage) []OperatorQuota {
	idx := map[string]int{}
	var out []OperatorQuota
	for _, a := range anfragen {
		i, ok := idx[a.EVU]
		if !ok {
			i = len(out)
			idx[a.EVU] = i
			out = append(out, OperatorQuota{EVU: a.EVU})
		}
		out[i].IDs = append(out[i].IDs, a.ID)
		out[i].Count++
	}
	return out
}

// TriggerSlotCount is the number of slots in the representative conflict's
// trigger pot. Slot conflicts use the pot the trigger slot belongs to. The
// second result is false when that pot is not populated.
func TriggerSlotCount(g slotsdk.KonfliktGruppe) (int, bool) {
	if len(g.KonflikteInGruppe) == 0 {
		return 0, false
	}
	topf := triggerPot(g.KonflikteInGruppe[0])
	if topf == nil {
		return 0, false
	}
	return len(topf.ListeDerSlots), true
}

// Quotas flags every operator whose request count exceeds the limit. No
// operator is flagged while the slot count is unknown.
func Quotas(g slotsdk.KonfliktGruppe) []OperatorQuota {
	slots, known := TriggerSlotCount(g)
	limit := QuotaLimit(slots)
	out := GroupByOperator(g.BeteiligteAnfragen)
	for i := range out {
		out[i].Limit = limit
		out[i].Flagged = known && out[i].Count > limit
	}
	return out
}

// Orderings is the operator -> ordered request ids map.
type Orderings map[string][]string

func newOrderings(quotas []OperatorQuota) Orderings {
	o := make(Orderings, len(quotas))
	for _, q := range quotas {
		o[q.EVU] = append([]string(nil), q.IDs...)
	}
	return o
}

func (o Orderings) clone() Orderings {
	c := make(Orderings, len(o))
	for k, v := range o {
		c[k] = append([]string(nil), v...)
	}
	return c
}

// swap moves the entry at i by delta (-1 up, +1 down). Moves past either end
// are no-ops.
func swap(ids []string, i, delta int) bool {
	j := i + delta
	if i < 0 || i >= len(ids) || j < 0 || j >= len(ids) {
		return false
	}
	ids[i], ids[j] = ids[j], ids[i]
	return true
}

// RankRow is one row of the fee comparison ranking.
type RankRow struct {
	Rang      int                 `json:"rang"`
	AnfrageID string              `json:"anfrage"`
	Sprechend string              `json:"anfrageIdSprechend,omitempty"`
	EVU       string              `json:"evu,omitempty"`
	Entgelt   decimal.NullDecimal `json:"entgelt"`
}

// Ranking returns the representative conflict's fee ranking sorted by rank.
// Equal ranks keep the order the backend delivered.
func Ranking(g slotsdk.KonfliktGruppe) []RankRow {
	if len(g.KonflikteInGruppe) == 0 {
		return nil
	}
	byID := map[string]slotsdk.Anfrage{}
	for _, a := range g.BeteiligteAnfragen {
		byID[a.ID] = a
	}
	src := g.KonflikteInGruppe[0].ReihungEntgelt
	out := make([]RankRow, 0, len(src))
	for _, r := range src {
		row := RankRow{Rang: r.Rang, AnfrageID: r.Anfrage.ID, Entgelt: r.Entgelt}
		a, ok := byID[r.Anfrage.ID]
		if r.Anfrage.Doc != nil {
			a, ok = *r.Anfrage.Doc, true
		}
		if ok {
			row.Sprechend = a.AnfrageIDSprechend
			row.EVU = a.EVU
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rang < out[j].Rang })
	return out
}
