// Package detail holds the display predicates and derived views of the
// detail pages. Everything here is a pure function of the fetched document.
package detail

import (
	"fmt"

	"github.com/shopspring/decimal"

	slotsdk "slotconsole/sdk/go"
)

// Overbooked reports whether more requests compete than the capacity allows.
func Overbooked(participants, maxCapacity int) bool {
	return participants > maxCapacity
}

// Occupancy of a single slot.
type Occupancy string

const (
	Frei     Occupancy = "Frei"
	Einfach  Occupancy = "Einfach belegt"
	Mehrfach Occupancy = "Mehrfach belegt"
)

// SlotOccupancy classifies a slot by the number of assigned requests.
func SlotOccupancy(s slotsdk.Slot) Occupancy {
	switch n := len(s.ZugewieseneAnfragen); {
	case n == 0:
		return Frei
	case n == 1:
		return Einfach
	default:
		return Mehrfach
	}
}

// Trigger describes what caused a conflict.
type Trigger struct {
	IsTopf      bool
	SpeakingID  string
	MaxCapacity int
	Slots       []slotsdk.Slot
	SlotsHeader string
}

// KonfliktTrigger derives the trigger view: the pot with its slots, or the
// single slot with capacity 1.
func KonfliktTrigger(k slotsdk.Konflikt) Trigger {
	if k.IsTopfKonflikt() {
		t := Trigger{IsTopf: true, SpeakingID: k.AusloesenderKapazitaetstopf.ID}
		if topf := k.AusloesenderKapazitaetstopf.Doc; topf != nil {
			t.SpeakingID = topf.TopfID
			t.MaxCapacity = topf.MaxKapazitaet
			t.Slots = slotsdk.Docs(topf.ListeDerSlots)
		}
		t.SlotsHeader = fmt.Sprintf("Slots im auslösenden Kapazitätstopf (%d)", len(t.Slots))
		return t
	}
	t := Trigger{SpeakingID: k.AusloesenderSlot.ID, MaxCapacity: 1, SlotsHeader: "Konflikt-Slot"}
	if slot := k.AusloesenderSlot.Doc; slot != nil {
		t.SpeakingID = slot.SlotIDSprechend
		t.Slots = []slotsdk.Slot{*slot}
	}
	return t
}

// Auslastung renders "active requests / capacity".
func Auslastung(k slotsdk.Konflikt) string {
	t := KonfliktTrigger(k)
	return fmt.Sprintf("%d / %d", len(k.BeteiligteAnfragen), t.MaxCapacity)
}

// KonfliktOverbooked applies Overbooked to a conflict document.
func KonfliktOverbooked(k slotsdk.Konflikt) bool {
	return Overbooked(len(k.BeteiligteAnfragen), KonfliktTrigger(k).MaxCapacity)
}

// TopfOverbooked applies Overbooked to a capacity pot.
func TopfOverbooked(t slotsdk.Kapazitaetstopf) bool {
	return Overbooked(len(t.ListeDerAnfragen), t.MaxKapazitaet)
}

// Neighbour returns the speaking id of a neighbour pot, "-" when absent.
func Neighbour(p slotsdk.Populated[slotsdk.Kapazitaetstopf]) string {
	switch {
	case p.Doc != nil && p.Doc.TopfID != "":
		return p.Doc.TopfID
	case p.ID != "":
		return p.ID
	default:
		return "-"
	}
}

// Fee formats a nullable amount with two decimals, "N/A" when missing.
func Fee(d decimal.NullDecimal) string {
	if !d.Valid {
		return "N/A"
	}
	return d.Decimal.StringFixed(2)
}
