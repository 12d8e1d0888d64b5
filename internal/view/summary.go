package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	slotsdk "slotconsole/sdk/go"
)

func (p *Printer) SlotSummary(rows []slotsdk.SlotSummaryRow) error {
	if p.JSON {
		return p.PrintJSON(nonNil(rows))
	}
	if len(rows) == 0 {
		p.Info("Keine Slots vorhanden.")
		return nil
	}
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.Linie, r.Abschnitt, p.Badge(r.Verkehrsart, VerkehrsartVariant(r.Verkehrsart)), r.Verkehrstag,
			r.AnzahlSlots, kw(r.MinKW, r.MaxKW), r.Belegung.Frei, r.Belegung.Einfach, r.Belegung.Mehrfach})
	}
	p.table(table.Row{"Linie", "Abschnitt", "Verkehrsart", "Verkehrstag", "Slots", "KW", "Frei", "Einfach", "Mehrfach"}, out)
	return nil
}

func (p *Printer) SlotCounter(groups []slotsdk.SlotCounterGroup) error {
	if p.JSON {
		return p.PrintJSON(nonNil(groups))
	}
	if len(groups) == 0 {
		p.Info("Keine Slots vorhanden.")
		return nil
	}
	for _, g := range groups {
		p.Title("Abschnitt " + g.Abschnitt)
		out := make([]table.Row, 0, len(g.SlotTypen))
		for _, t := range g.SlotTypen {
			m := t.SlotMuster
			out = append(out, table.Row{m.Von + " → " + m.Bis, m.Abfahrt.String() + "-" + m.Ankunft.String(),
				p.Badge(m.Verkehrsart, VerkehrsartVariant(m.Verkehrsart)), t.AnzahlMoFr, weeks(t.KWsMoFr), t.AnzahlSaSo, weeks(t.KWsSaSo)})
		}
		p.table(table.Row{"Strecke", "Zeit", "Verkehrsart", "Mo-Fr", "KW Mo-Fr", "Sa+So", "KW Sa+So"}, out)
	}
	return nil
}

// SlotPattern renders the instances of one timetable pattern.
func (p *Printer) SlotPattern(m slotsdk.SlotMuster, slots []slotsdk.Slot) error {
	if p.JSON {
		return p.PrintJSON(map[string]any{"muster": m, "slots": nonNil(slots)})
	}
	p.slotsTable(fmt.Sprintf("%s → %s %s-%s (%d)", m.Von, m.Bis, m.Abfahrt, m.Ankunft, len(slots)), slots)
	return nil
}

func (p *Printer) AnfrageSummary(rows []slotsdk.AnfrageSummaryRow) error {
	if p.JSON {
		return p.PrintJSON(nonNil(rows))
	}
	if len(rows) == 0 {
		p.Info("Keine Anfragen vorhanden.")
		return nil
	}
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.EVU, p.Badge(r.Verkehrsart, VerkehrsartVariant(r.Verkehrsart)), r.TotalAnfragen, statusCounts(r.StatusCounts)})
	}
	p.table(table.Row{"EVU", "Verkehrsart", "Anfragen", "Status"}, out)
	return nil
}

func (p *Printer) TopfSummary(rows []slotsdk.TopfSummaryRow) error {
	if p.JSON {
		return p.PrintJSON(nonNil(rows))
	}
	if len(rows) == 0 {
		p.Info("Keine Kapazitätstöpfe vorhanden.")
		return nil
	}
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.Abschnitt, p.Badge(r.Verkehrsart, VerkehrsartVariant(r.Verkehrsart)), kw(r.MinKW, r.MaxKW),
			r.AnzahlToepfe, r.OhneKonflikt, r.MitKonflikt})
	}
	p.table(table.Row{"Abschnitt", "Verkehrsart", "KW", "Töpfe", "Ohne Konflikt", "Mit Konflikt"}, out)
	return nil
}

func weeks(kws []int) string {
	if len(kws) == 0 {
		return "-"
	}
	parts := make([]string, len(kws))
	for i, k := range kws {
		parts[i] = fmt.Sprint(k)
	}
	return strings.Join(parts, ", ")
}

// statusCounts renders non-zero counts sorted by status name.
func statusCounts(c slotsdk.StatusCounts) string {
	keys := make([]string, 0, len(c))
	for k, n := range c {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, c[k])
	}
	return strings.Join(parts, ", ")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
