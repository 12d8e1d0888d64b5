package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"slotconsole/internal/collection"
	"slotconsole/internal/coordination"
	"slotconsole/internal/detail"
	slotsdk "slotconsole/sdk/go"
)

// Fallback texts of the list pages.
const (
	SlotsFailed     = "Slots konnten nicht geladen werden."
	AnfragenFailed  = "Anfragen konnten nicht geladen werden."
	ToepfeFailed    = "Kapazitätstöpfe konnten nicht geladen werden."
	KonflikteFailed = "Konflikte konnten nicht geladen werden."
)

func kw(lo, hi int) string {
	if lo == hi {
		return strconv.Itoa(lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

func (p *Printer) Slots(page collection.Page[slotsdk.Slot]) error {
	return renderPage(p, page, SlotsFailed, "Keine Slots gefunden.",
		table.Row{"ID", "Linie", "Abschnitt", "Abfahrt", "Ankunft", "Verkehrstag", "KW", "Verkehrsart", "Entgelt", "Belegung"},
		func(s slotsdk.Slot) table.Row {
			return table.Row{s.SlotIDSprechend, s.Linienbezeichnung, s.Abschnitt, s.Abfahrt, s.Ankunft, s.Verkehrstag,
				s.Kalenderwoche, p.Badge(s.Verkehrsart, VerkehrsartVariant(s.Verkehrsart)), detail.Fee(s.Grundentgelt), detail.SlotOccupancy(s)}
		})
}

func (p *Printer) Anfragen(page collection.Page[slotsdk.Anfrage]) error {
	return renderPage(p, page, AnfragenFailed, "Keine Anfragen gefunden.",
		table.Row{"ID", "Zugnummer", "EVU", "Verkehrsart", "Verkehrstag", "Zeitraum", "Entgelt", "Status"},
		func(a slotsdk.Anfrage) table.Row {
			return table.Row{a.AnfrageIDSprechend, a.Zugnummer, a.EVU, p.Badge(a.Verkehrsart, VerkehrsartVariant(a.Verkehrsart)),
				a.Verkehrstag, zeitraum(a.Zeitraum), detail.Fee(a.Entgelt), p.Badge(a.Status, AnfrageStatusVariant(a.Status))}
		})
}

func (p *Printer) Toepfe(page collection.Page[slotsdk.Kapazitaetstopf]) error {
	return renderPage(p, page, ToepfeFailed, "Keine Kapazitätstöpfe gefunden.",
		table.Row{"ID", "Abschnitt", "Verkehrsart", "Verkehrstag", "KW", "Zeitfenster", "Anfragen / Kapazität", "Slots"},
		func(t slotsdk.Kapazitaetstopf) table.Row {
			load := fmt.Sprintf("%d / %d", len(t.ListeDerAnfragen), t.MaxKapazitaet)
			if detail.TopfOverbooked(t) {
				load = p.Badge(load, Danger)
			}
			return table.Row{t.TopfID, t.Abschnitt, p.Badge(t.Verkehrsart, VerkehrsartVariant(t.Verkehrsart)),
				t.Verkehrstag, t.Kalenderwoche, t.Zeitfenster, load, len(t.ListeDerSlots)}
		})
}

func (p *Printer) Konflikte(page collection.Page[slotsdk.Konflikt]) error {
	return renderPage(p, page, KonflikteFailed, "Keine offenen Konflikte gefunden.",
		table.Row{"ID", "Typ", "Auslöser", "Auslastung", "Status"},
		func(k slotsdk.Konflikt) table.Row {
			return table.Row{k.ID, k.KonfliktTyp, detail.KonfliktTrigger(k).SpeakingID, detail.Auslastung(k),
				p.Badge(k.Status, KonfliktStatusVariant(k.Status))}
		})
}

// Gruppen renders the unpaginated group list.
func (p *Printer) Gruppen(gruppen []slotsdk.KonfliktGruppe) error {
	if p.JSON {
		if gruppen == nil {
			gruppen = []slotsdk.KonfliktGruppe{}
		}
		return p.PrintJSON(gruppen)
	}
	if len(gruppen) == 0 {
		p.Info("Keine Konfliktgruppen gefunden.")
		return nil
	}
	rows := make([]table.Row, 0, len(gruppen))
	for _, g := range gruppen {
		s := coordination.Summarize(g)
		rows = append(rows, table.Row{g.ID, p.Badge(s.Verkehrsart, VerkehrsartVariant(s.Verkehrsart)),
			s.KalenderwochenText(), strings.Join(s.Abschnitte, ", "), len(g.KonflikteInGruppe), len(g.BeteiligteAnfragen),
			p.Badge(g.Status, GruppeStatusVariant(g.Status))})
	}
	p.table(table.Row{"ID", "Verkehrsart", "KW", "Abschnitte", "Konflikte", "Anfragen", "Status"}, rows)
	return nil
}

func zeitraum(z slotsdk.Zeitraum) string {
	if z.Start == "" && z.Ende == "" {
		return "-"
	}
	return z.Start + " bis " + z.Ende
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Gruppe renders one group with its conflicts.
func (p *Printer) Gruppe(g slotsdk.KonfliktGruppe) error {
	if p.JSON {
		return p.PrintJSON(g)
	}
	s := coordination.Summarize(g)
	p.Title("Konfliktgruppe " + g.ID)
	p.keyValues([][2]any{
		{"Status", p.Badge(g.Status, GruppeStatusVariant(g.Status))},
		{"Schlüssel", orDash(g.GruppenSchluessel)},
		{"Konflikttyp", s.KonfliktTyp},
		{"Verkehrsart", p.Badge(s.Verkehrsart, VerkehrsartVariant(s.Verkehrsart))},
		{"Kalenderwochen", orDash(s.KalenderwochenText())},
		{"Anfragen", len(g.BeteiligteAnfragen)},
	})
	p.Title(fmt.Sprintf("Konflikte (%d)", len(g.KonflikteInGruppe)))
	if len(g.KonflikteInGruppe) == 0 {
		p.Info("Keine Konflikte in der Gruppe.")
	} else {
		rows := make([]table.Row, 0, len(g.KonflikteInGruppe))
		for _, k := range g.KonflikteInGruppe {
			rows = append(rows, table.Row{k.ID, detail.KonfliktTrigger(k).SpeakingID, detail.Auslastung(k), p.Badge(k.Status, KonfliktStatusVariant(k.Status))})
		}
		p.table(table.Row{"ID", "Auslöser", "Auslastung", "Status"}, rows)
	}
	p.anfragenTable("Beteiligte Anfragen", g.BeteiligteAnfragen, "Keine beteiligten Anfragen.")
	return nil
}
