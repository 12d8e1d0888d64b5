package view

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"slotconsole/internal/detail"
	slotsdk "slotconsole/sdk/go"
)

func (p *Printer) Slot(s slotsdk.Slot) error {
	if p.JSON {
		return p.PrintJSON(s)
	}
	p.Title("Slot " + s.SlotIDSprechend)
	p.keyValues([][2]any{
		{"Linie", orDash(s.Linienbezeichnung)},
		{"Strecke", s.Von + " → " + s.Bis},
		{"Abschnitt", s.Abschnitt},
		{"Abfahrt / Ankunft", s.Abfahrt.String() + " / " + s.Ankunft.String()},
		{"Verkehrstag", s.Verkehrstag},
		{"Kalenderwoche", s.Kalenderwoche},
		{"Verkehrsart", p.Badge(s.Verkehrsart, VerkehrsartVariant(s.Verkehrsart))},
		{"Grundentgelt", detail.Fee(s.Grundentgelt)},
		{"Kapazitätstopf", detail.Neighbour(s.VerweisAufTopf)},
		{"Belegung", detail.SlotOccupancy(s)},
	})
	p.anfragenTable("Zugewiesene Anfragen", slotsdk.Docs(s.ZugewieseneAnfragen), "Keine Anfragen zugewiesen.")
	return nil
}

func (p *Printer) Anfrage(a slotsdk.Anfrage) error {
	if p.JSON {
		return p.PrintJSON(a)
	}
	p.Title("Anfrage " + a.AnfrageIDSprechend)
	p.keyValues([][2]any{
		{"Zugnummer", orDash(a.Zugnummer)},
		{"EVU", a.EVU},
		{"E-Mail", orDash(a.Email)},
		{"Verkehrsart", p.Badge(a.Verkehrsart, VerkehrsartVariant(a.Verkehrsart))},
		{"Verkehrstag", a.Verkehrstag},
		{"Zeitraum", zeitraum(a.Zeitraum)},
		{"Entgelt", detail.Fee(a.Entgelt)},
		{"Status", p.Badge(a.Status, AnfrageStatusVariant(a.Status))},
	})

	p.Title("Gewünschte Abschnitte")
	if len(a.ListeGewuenschterSlotAbschnitte) == 0 {
		p.Info("Keine Abschnitte angegeben.")
	} else {
		rows := make([]table.Row, 0, len(a.ListeGewuenschterSlotAbschnitte))
		for i, s := range a.ListeGewuenschterSlotAbschnitte {
			rows = append(rows, table.Row{i + 1, s.Von, s.Bis, s.Abfahrtszeit, s.Ankunftszeit})
		}
		p.table(table.Row{"#", "Von", "Bis", "Abfahrt", "Ankunft"}, rows)
	}

	p.Title("Zugewiesene Slots")
	if len(a.ZugewieseneSlots) == 0 {
		p.Info("Keine Slots zugewiesen.")
		return nil
	}
	rows := make([]table.Row, 0, len(a.ZugewieseneSlots))
	for _, z := range a.ZugewieseneSlots {
		id, kwText, topf := z.Slot.ID, "-", "-"
		if s := z.Slot.Doc; s != nil {
			id = s.SlotIDSprechend
			kwText = fmt.Sprint(s.Kalenderwoche)
			topf = detail.Neighbour(s.VerweisAufTopf)
		}
		rows = append(rows, table.Row{id, kwText, topf, p.Badge(z.StatusEinzelzuweisung, AnfrageStatusVariant(z.StatusEinzelzuweisung))})
	}
	p.table(table.Row{"Slot", "KW", "Kapazitätstopf", "Status"}, rows)
	return nil
}

func (p *Printer) Topf(t slotsdk.Kapazitaetstopf) error {
	if p.JSON {
		return p.PrintJSON(t)
	}
	p.Title("Kapazitätstopf " + t.TopfID)
	load := fmt.Sprintf("%d / %d", len(t.ListeDerAnfragen), t.MaxKapazitaet)
	if detail.TopfOverbooked(t) {
		load = p.Badge(load+" überbucht", Danger)
	}
	p.keyValues([][2]any{
		{"Abschnitt", t.Abschnitt},
		{"Verkehrsart", p.Badge(t.Verkehrsart, VerkehrsartVariant(t.Verkehrsart))},
		{"Verkehrstag", t.Verkehrstag},
		{"Kalenderwoche", t.Kalenderwoche},
		{"Zeitfenster", t.Zeitfenster},
		{"Anfragen / Kapazität", load},
		{"Vorgänger", detail.Neighbour(t.Vorgaenger)},
		{"Nachfolger", detail.Neighbour(t.Nachfolger)},
	})
	p.slotsTable(fmt.Sprintf("Slots (%d)", len(t.ListeDerSlots)), slotsdk.Docs(t.ListeDerSlots))
	p.anfragenTable("Anfragen", slotsdk.Docs(t.ListeDerAnfragen), "Keine Anfragen im Topf.")
	return nil
}

func (p *Printer) Konflikt(d slotsdk.KonfliktDetail) error {
	if p.JSON {
		return p.PrintJSON(d)
	}
	k := d.Konflikt
	trig := detail.KonfliktTrigger(k)
	p.Title("Konflikt " + k.ID)
	load := detail.Auslastung(k)
	if detail.KonfliktOverbooked(k) {
		load = p.Badge(load, Danger)
	}
	kind := "Slot"
	if trig.IsTopf {
		kind = "Kapazitätstopf"
	}
	p.keyValues([][2]any{
		{"Typ", k.KonfliktTyp},
		{"Status", p.Badge(k.Status, KonfliktStatusVariant(k.Status))},
		{"Auslöser", kind + " " + trig.SpeakingID},
		{"Max. Kapazität", trig.MaxCapacity},
		{"Auslastung", load},
		{"Konfliktgruppe", orDash(d.GruppenID)},
		{"Notizen", orDash(k.Notizen)},
	})
	p.slotsTable(trig.SlotsHeader, trig.Slots)
	p.anfragenTable("Beteiligte Anfragen", slotsdk.Docs(k.BeteiligteAnfragen), "Keine beteiligten Anfragen.")
	return nil
}

func (p *Printer) slotsTable(title string, slots []slotsdk.Slot) {
	p.Title(title)
	if len(slots) == 0 {
		p.Info("Keine Slots.")
		return
	}
	rows := make([]table.Row, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, table.Row{s.SlotIDSprechend, s.Abschnitt, s.Abfahrt, s.Ankunft, s.Kalenderwoche, detail.SlotOccupancy(s)})
	}
	p.table(table.Row{"Slot", "Abschnitt", "Abfahrt", "Ankunft", "KW", "Belegung"}, rows)
}

func (p *Printer) anfragenTable(title string, anfragen []slotsdk.Anfrage, empty string) {
	p.Title(title)
	if len(anfragen) == 0 {
		p.Info(empty)
		return
	}
	rows := make([]table.Row, 0, len(anfragen))
	for _, a := range anfragen {
		rows = append(rows, table.Row{a.AnfrageIDSprechend, a.EVU, a.Verkehrstag, detail.Fee(a.Entgelt), p.Badge(a.Status, AnfrageStatusVariant(a.Status))})
	}
	p.table(table.Row{"Anfrage", "EVU", "Verkehrstag", "Entgelt", "Status"}, rows)
}
