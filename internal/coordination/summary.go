package coordination

import (
	"sort"
	"strconv"
	"strings"

	slotsdk "slotconsole/sdk/go"
)

// AlleVerkehrsarten labels a group whose requests span several traffic types.
const AlleVerkehrsarten = "ALLE"

// Summary is the header of a group view.
type Summary struct {
	KonfliktTyp    string   `json:"konfliktTyp"`
	AnzahlToepfe   int      `json:"anzahlToepfe"`
	Kalenderwochen []int    `json:"kalenderwochen"`
	Verkehrstage   []string `json:"verkehrstage"`
	Abschnitte     []string `json:"abschnitte"`
	Zeitfenster    []string `json:"zeitfenster"`
	Verkehrsart    string   `json:"verkehrsart"`
	Anfragen       int      `json:"anfragen"`
}

// KalenderwochenText joins the calendar weeks for display.
func (s Summary) KalenderwochenText() string {
	parts := make([]string, len(s.Kalenderwochen))
	for i, kw := range s.Kalenderwochen {
		parts[i] = strconv.Itoa(kw)
	}
	return strings.Join(parts, ", ")
}

// Summarize derives the group header. Values are distinct and keep first
// appearance order, calendar weeks are sorted.
func Summarize(g slotsdk.KonfliktGruppe) Summary {
	s := Summary{
		KonfliktTyp:  slotsdk.KonfliktTypTopf,
		AnzahlToepfe: len(g.KonflikteInGruppe),
		Anfragen:     len(g.BeteiligteAnfragen),
	}
	if len(g.KonflikteInGruppe) > 0 && g.KonflikteInGruppe[0].KonfliktTyp != "" {
		s.KonfliktTyp = g.KonflikteInGruppe[0].KonfliktTyp
	}
	kws := map[int]bool{}
	var tage, abschnitte, fenster distinct
	for _, k := range g.KonflikteInGruppe {
		ctx := triggerContext(k)
		if ctx.kw > 0 && !kws[ctx.kw] {
			kws[ctx.kw] = true
			s.Kalenderwochen = append(s.Kalenderwochen, ctx.kw)
		}
		tage.add(ctx.verkehrstag)
		abschnitte.add(ctx.abschnitt)
		fenster.add(ctx.zeitfenster)
	}
	sort.Ints(s.Kalenderwochen)
	s.Verkehrstage = tage.values
	s.Abschnitte = abschnitte.values
	s.Zeitfenster = fenster.values

	var arten distinct
	for _, a := range g.BeteiligteAnfragen {
		arten.add(a.Verkehrsart)
	}
	if len(arten.values) == 1 {
		s.Verkehrsart = arten.values[0]
	} else {
		s.Verkehrsart = AlleVerkehrsarten
	}
	return s
}

type triggerFields struct {
	kw          int
	verkehrstag string
	abschnitt   string
	zeitfenster string
}

// triggerContext reads the pot attributes of a conflict trigger. Slot
// conflicts fall back to the slot's own attributes when its pot is not
// populated.
func triggerContext(k slotsdk.Konflikt) triggerFields {
	if topf := triggerPot(k); topf != nil {
		return triggerFields{kw: topf.Kalenderwoche, verkehrstag: topf.Verkehrstag, abschnitt: topf.Abschnitt, zeitfenster: topf.Zeitfenster}
	}
	if slot := k.AusloesenderSlot.Doc; slot != nil {
		return triggerFields{kw: slot.Kalenderwoche, verkehrstag: slot.Verkehrstag, abschnitt: slot.Abschnitt}
	}
	return triggerFields{}
}

// triggerPot is the pot a conflict is measured against.
func triggerPot(k slotsdk.Konflikt) *slotsdk.Kapazitaetstopf {
	if k.IsTopfKonflikt() {
		return k.AusloesenderKapazitaetstopf.Doc
	}
	if slot := k.AusloesenderSlot.Doc; slot != nil {
		return slot.VerweisAufTopf.Doc
	}
	return nil
}

type distinct struct {
	seen   map[string]bool
	values []string
}

func (d *distinct) add(v string) {
	if v == "" {
		return
	}
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[v] {
		return
	}
	d.seen[v] = true
	d.values = append(d.values, v)
}
