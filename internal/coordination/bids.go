package coordination

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	slotsdk "slotconsole/sdk/go"
)

// awaitingStatus is the assignment status of requests waiting for a bid.
func awaitingStatus(g slotsdk.KonfliktGruppe) string {
	if len(g.KonflikteInGruppe) > 0 && !g.KonflikteInGruppe[0].IsTopfKonflikt() {
		return WartetHoechstpreisSlot
	}
	return WartetHoechstpreisTopf
}

// triggerSet holds the ids of the group's trigger pots or trigger slots.
// potSlots holds the slot ids of every populated trigger pot.
func triggerSet(g slotsdk.KonfliktGruppe) (set, potSlots map[string]bool) {
	set, potSlots = map[string]bool{}, map[string]bool{}
	for _, k := range g.KonflikteInGruppe {
		if k.IsTopfKonflikt() {
			if k.AusloesenderKapazitaetstopf.ID != "" {
				set[k.AusloesenderKapazitaetstopf.ID] = true
			}
			if topf := k.AusloesenderKapazitaetstopf.Doc; topf != nil {
				for _, id := range slotsdk.IDs(topf.ListeDerSlots) {
					potSlots[id] = true
				}
			}
			continue
		}
		if k.AusloesenderSlot.ID != "" {
			set[k.AusloesenderSlot.ID] = true
		}
	}
	return set, potSlots
}

// inTriggerPot reports whether an assigned slot belongs to one of the
// trigger pots, by the slot's pot reference or by the pot's slot list.
func inTriggerPot(slot slotsdk.Populated[slotsdk.Slot], pots, potSlots map[string]bool) bool {
	if slot.Doc != nil && slot.Doc.VerweisAufTopf.ID != "" {
		return pots[slot.Doc.VerweisAufTopf.ID]
	}
	return potSlots[slot.ID]
}

// BidCandidates are the participating requests with an assignment that
// waits for the highest-price round inside this group's triggers.
func BidCandidates(g slotsdk.KonfliktGruppe) []slotsdk.Anfrage {
	status := awaitingStatus(g)
	slotTrigger := status == WartetHoechstpreisSlot
	set, potSlots := triggerSet(g)
	var out []slotsdk.Anfrage
	for _, a := range g.BeteiligteAnfragen {
		for _, z := range a.ZugewieseneSlots {
			if z.StatusEinzelzuweisung != status {
				continue
			}
			if slotTrigger && set[z.Slot.ID] {
				out = append(out, a)
				break
			}
			if !slotTrigger && inTriggerPot(z.Slot, set, potSlots) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// BidRow is the input state of one candidate.
type BidRow struct {
	AnfrageID string              `json:"anfrage"`
	Sprechend string              `json:"anfrageIdSprechend"`
	EVU       string              `json:"evu"`
	Entgelt   decimal.NullDecimal `json:"entgelt"`
	Gebot     string              `json:"gebot,omitempty"`
	// NotAboveFee flags a bid that does not exceed the request's fee.
	NotAboveFee bool `json:"gebotNichtUeberEntgelt"`
}

func bidRow(a slotsdk.Anfrage, raw string) BidRow {
	row := BidRow{AnfrageID: a.ID, Sprechend: a.AnfrageIDSprechend, EVU: a.EVU, Entgelt: a.Entgelt, Gebot: raw}
	if raw == "" || !a.Entgelt.Valid {
		return row
	}
	bid, err := decimal.NewFromString(raw)
	if err != nil {
		return row
	}
	row.NotAboveFee = bid.LessThanOrEqual(a.Entgelt.Decimal)
	return row
}

// parseBid normalizes a bid input. Empty input clears the bid.
func parseBid(raw string) (string, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return "", nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("invalid bid %q: %w", raw, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("invalid bid %q: must not be negative", raw)
	}
	return d.String(), nil
}
