package view

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"slotconsole/internal/dashboard"
	"slotconsole/internal/events"
	"slotconsole/internal/forms"
	"slotconsole/internal/repo"
)

func (p *Printer) Dashboard(o dashboard.Overview) error {
	if p.JSON {
		return p.PrintJSON(o)
	}
	p.Title("Anfragen-Pipeline")
	counters := o.Pipeline.Counters()
	header := make(table.Row, 0, len(counters))
	row := make(table.Row, 0, len(counters))
	for _, c := range counters {
		header = append(header, c.Status)
		row = append(row, c.Count)
	}
	p.table(header, []table.Row{row})

	p.Title("Konfliktgruppen")
	if len(o.Gruppen) == 0 {
		p.Info("Keine Konfliktgruppen vorhanden.")
		return nil
	}
	statuses := make([]string, 0, len(o.GruppenStatus))
	for s := range o.GruppenStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	rows := make([]table.Row, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, table.Row{p.Badge(s, GruppeStatusVariant(s)), o.GruppenStatus[s]})
	}
	p.table(table.Row{"Status", "Gruppen"}, rows)
	p.Line("Offene Gruppen: %d von %d", o.OffeneGruppen, len(o.Gruppen))
	return nil
}

// FormResult prints a submission outcome with its field errors.
func (p *Printer) FormResult(r forms.Result) error {
	if p.JSON {
		out := map[string]any{"ok": r.OK(), "message": r.Message}
		if len(r.Fields) > 0 {
			out["fields"] = r.Fields
		}
		return p.PrintJSON(out)
	}
	if r.OK() {
		p.Line("%s", p.r.NewStyle().Foreground(variantColors[Success]).Render(r.Message))
		return nil
	}
	p.Error(r.Message)
	return nil
}

func (p *Printer) Journal(entries []repo.JournalEntry) error {
	if p.JSON {
		return p.PrintJSON(nonNil(entries))
	}
	if len(entries) == 0 {
		p.Info("Keine Aktionen protokolliert.")
		return nil
	}
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		outcome := p.Badge(e.Outcome, Success)
		if e.Outcome != events.OutcomeOK {
			outcome = p.Badge(e.Outcome, Danger)
		}
		rows = append(rows, table.Row{e.ID, e.TS, e.Type, e.EntityKind, orDash(e.EntityID), outcome, orDash(e.Message)})
	}
	p.table(table.Row{"#", "Zeit", "Typ", "Art", "Objekt", "Ergebnis", "Meldung"}, rows)
	return nil
}

// Drafts lists unsent coordination input stored in the workspace.
func (p *Printer) Drafts(drafts []repo.Draft) error {
	if p.JSON {
		return p.PrintJSON(nonNil(drafts))
	}
	if len(drafts) == 0 {
		p.Info("Keine gespeicherten Entwürfe.")
		return nil
	}
	rows := make([]table.Row, 0, len(drafts))
	for _, d := range drafts {
		rows = append(rows, table.Row{d.Kind, d.GroupID, d.UpdatedAt, d.Identity})
	}
	p.table(table.Row{"Art", "Gruppe", "Geändert", "Identität"}, rows)
	return nil
}
