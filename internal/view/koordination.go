package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"slotconsole/internal/coordination"
	"slotconsole/internal/detail"
)

// Koordination renders the group header and the input of the open phase.
func (p *Printer) Koordination(s coordination.Snapshot) error {
	if p.JSON {
		return p.PrintJSON(s)
	}
	sum := s.Summary
	p.Title(fmt.Sprintf("Konfliktgruppe %s (%s)", s.GruppeID, s.Kind))
	p.keyValues([][2]any{
		{"Status", p.Badge(s.Status, GruppeStatusVariant(s.Status))},
		{"Phase", s.Phase},
		{"Konflikttyp", sum.KonfliktTyp},
		{"Kapazitätstöpfe", sum.AnzahlToepfe},
		{"Kalenderwochen", orDash(sum.KalenderwochenText())},
		{"Verkehrstage", orDash(strings.Join(sum.Verkehrstage, ", "))},
		{"Abschnitte", orDash(strings.Join(sum.Abschnitte, ", "))},
		{"Zeitfenster", orDash(strings.Join(sum.Zeitfenster, ", "))},
		{"Verkehrsart", p.Badge(sum.Verkehrsart, VerkehrsartVariant(sum.Verkehrsart))},
		{"Anfragen", sum.Anfragen},
	})

	waived := map[string]bool{}
	for _, id := range s.Waivers {
		waived[id] = true
	}
	p.Title("Beteiligte Anfragen")
	rows := make([]table.Row, 0, len(s.Anfragen))
	for _, a := range s.Anfragen {
		mark := ""
		if waived[a.ID] {
			mark = p.Badge("Verzicht", Warning)
		}
		rows = append(rows, table.Row{a.ID, a.AnfrageIDSprechend, a.EVU, detail.Fee(a.Entgelt), p.Badge(a.Status, AnfrageStatusVariant(a.Status)), mark})
	}
	p.table(table.Row{"ID", "Anfrage", "EVU", "Entgelt", "Status", ""}, rows)

	if s.ReorderOpen {
		p.quotas(s)
	}
	if len(s.Ranking) > 0 {
		p.Title("Reihung Entgeltvergleich")
		rr := make([]table.Row, 0, len(s.Ranking))
		for _, r := range s.Ranking {
			rr = append(rr, table.Row{r.Rang, orDash(r.Sprechend), orDash(r.EVU), detail.Fee(r.Entgelt)})
		}
		p.table(table.Row{"Rang", "Anfrage", "EVU", "Entgelt"}, rr)
	}
	if s.BiddingOpen {
		p.Title("Höchstpreisverfahren")
		if len(s.Bids) == 0 {
			p.Info("Keine Anfragen warten auf ein Höchstpreisgebot.")
		} else {
			br := make([]table.Row, 0, len(s.Bids))
			for _, b := range s.Bids {
				gebot := orDash(b.Gebot)
				if b.NotAboveFee {
					gebot = p.Badge(gebot+" nicht über Entgelt", Warning)
				}
				br = append(br, table.Row{b.AnfrageID, b.Sprechend, b.EVU, detail.Fee(b.Entgelt), gebot})
			}
			p.table(table.Row{"ID", "Anfrage", "EVU", "Entgelt", "Gebot"}, br)
		}
	}
	if !s.WaiversOpen && !s.BiddingOpen && !s.ReorderOpen {
		p.Info("Keine offene Koordinationsphase.")
	}
	return nil
}

// SlotCountUnknownMessage is shown when the trigger pot came without its slots.
const SlotCountUnknownMessage = "Slotanzahl des auslösenden Topfs unbekannt; keine Quote berechnet."

func (p *Printer) quotas(s coordination.Snapshot) {
	if s.SlotCountKnown {
		p.Title(fmt.Sprintf("Entgeltvergleich: %d Slots im Topf, Limit %d Anfragen je EVU", s.SlotsImTopf, s.QuotaLimit))
	} else {
		p.Title("Entgeltvergleich")
		p.Info(SlotCountUnknownMessage)
	}
	rows := make([]table.Row, 0, len(s.Quotas))
	for _, q := range s.Quotas {
		state := p.Badge("im Limit", Success)
		if !s.SlotCountKnown {
			state = p.Badge("unbekannt", Warning)
		}
		if q.Flagged {
			state = p.Badge("über Quote", Danger)
		}
		order := s.Orderings[q.EVU]
		if len(order) == 0 {
			order = q.IDs
		}
		rows = append(rows, table.Row{q.EVU, q.Count, q.Limit, state, strings.Join(order, " > ")})
	}
	p.table(table.Row{"EVU", "Anfragen", "Limit", "Quote", "Reihenfolge"}, rows)
}

// Analysis prints the title and the raw result indented.
func (p *Printer) Analysis(a coordination.Analysis) error {
	if p.JSON {
		return p.PrintJSON(a)
	}
	p.Title(a.Title)
	var buf bytes.Buffer
	if err := json.Indent(&buf, a.Data, "", "  "); err != nil {
		p.Line("%s", string(a.Data))
		return nil
	}
	p.Line("%s", buf.String())
	return nil
}
