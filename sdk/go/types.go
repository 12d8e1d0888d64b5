package slotsdk

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Populated is a relation that the backend delivers either as a bare id or
// as the populated document.
type Populated[T any] struct {
	ID  string
	Doc *T
}

// Ref returns an unpopulated relation.
func Ref[T any](id string) Populated[T] {
	return Populated[T]{ID: id}
}

// Of returns a populated relation.
func Of[T any](id string, doc T) Populated[T] {
	return Populated[T]{ID: id, Doc: &doc}
}

func (p *Populated[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*p = Populated[T]{}
		return nil
	}
	if b[0] == '"' {
		p.Doc = nil
		return json.Unmarshal(b, &p.ID)
	}
	var head struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return fmt.Errorf("decode relation: %w", err)
	}
	var doc T
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("decode relation: %w", err)
	}
	p.ID = head.ID
	p.Doc = &doc
	return nil
}

func (p Populated[T]) MarshalJSON() ([]byte, error) {
	if p.Doc != nil {
		return json.Marshal(p.Doc)
	}
	if p.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(p.ID)
}

// Docs returns the populated documents of refs, skipping bare ids.
func Docs[T any](refs []Populated[T]) []T {
	out := make([]T, 0, len(refs))
	for _, r := range refs {
		if r.Doc != nil {
			out = append(out, *r.Doc)
		}
	}
	return out
}

// IDs returns the ids of refs in order.
func IDs[T any](refs []Populated[T]) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}

// Zeit is a time of day.
type Zeit struct {
	Stunde int `json:"stunde"`
	Minute int `json:"minute"`
}

func (z Zeit) String() string {
	return fmt.Sprintf("%02d:%02d", z.Stunde, z.Minute)
}

// Zeitraum is a date range (YYYY-MM-DD strings as the backend sends them).
type Zeitraum struct {
	Start string `json:"start"`
	Ende  string `json:"ende"`
}

type Slot struct {
	ID                  string                     `json:"_id"`
	SlotIDSprechend     string                     `json:"SlotID_Sprechend"`
	Linienbezeichnung   string                     `json:"Linienbezeichnung,omitempty"`
	Von                 string                     `json:"von"`
	Bis                 string                     `json:"bis"`
	Abschnitt           string                     `json:"Abschnitt"`
	Abfahrt             Zeit                       `json:"Abfahrt"`
	Ankunft             Zeit                       `json:"Ankunft"`
	Verkehrstag         string                     `json:"Verkehrstag"`
	Kalenderwoche       int                        `json:"Kalenderwoche"`
	Verkehrsart         string                     `json:"Verkehrsart"`
	Grundentgelt        decimal.NullDecimal        `json:"Grundentgelt"`
	VerweisAufTopf      Populated[Kapazitaetstopf] `json:"VerweisAufTopf"`
	ZugewieseneAnfragen []Populated[Anfrage]       `json:"zugewieseneAnfragen"`
}

// SlotAbschnitt is one desired segment of an Anfrage.
type SlotAbschnitt struct {
	Von          string `json:"von"`
	Bis          string `json:"bis"`
	Abfahrtszeit Zeit   `json:"Abfahrtszeit"`
	Ankunftszeit Zeit   `json:"Ankunftszeit"`
}

// Zuweisung is a slot assignment of an Anfrage with its own status.
type Zuweisung struct {
	Slot                  Populated[Slot] `json:"slot"`
	StatusEinzelzuweisung string          `json:"statusEinzelzuweisung"`
}

type Anfrage struct {
	ID                              string              `json:"_id"`
	AnfrageIDSprechend              string              `json:"AnfrageID_Sprechend"`
	Zugnummer                       string              `json:"Zugnummer,omitempty"`
	EVU                             string              `json:"EVU"`
	Email                           string              `json:"Email,omitempty"`
	Verkehrsart                     string              `json:"Verkehrsart"`
	Verkehrstag                     string              `json:"Verkehrstag"`
	Zeitraum                        Zeitraum            `json:"Zeitraum"`
	Entgelt                         decimal.NullDecimal `json:"Entgelt"`
	Status                          string              `json:"Status"`
	ListeGewuenschterSlotAbschnitte []SlotAbschnitt     `json:"ListeGewuenschterSlotAbschnitte"`
	ZugewieseneSlots                []Zuweisung         `json:"ZugewieseneSlots"`
}

type Kapazitaetstopf struct {
	ID               string                     `json:"_id"`
	TopfID           string                     `json:"TopfID"`
	Abschnitt        string                     `json:"Abschnitt"`
	Verkehrsart      string                     `json:"Verkehrsart"`
	Verkehrstag      string                     `json:"Verkehrstag"`
	Kalenderwoche    int                        `json:"Kalenderwoche"`
	Zeitfenster      string                     `json:"Zeitfenster"`
	MaxKapazitaet    int                        `json:"maxKapazitaet"`
	ListeDerSlots    []Populated[Slot]          `json:"ListeDerSlots"`
	ListeDerAnfragen []Populated[Anfrage]       `json:"ListeDerAnfragen"`
	Vorgaenger       Populated[Kapazitaetstopf] `json:"TopfIDVorgänger"`
	Nachfolger       Populated[Kapazitaetstopf] `json:"TopfIDNachfolger"`
}

// Konflikt types.
const (
	KonfliktTypTopf = "KAPAZITAETSTOPF"
	KonfliktTypSlot = "SLOT"
)

// Reihung is one row of the fee comparison ranking.
type Reihung struct {
	Rang    int                 `json:"rang"`
	Anfrage Populated[Anfrage]  `json:"anfrage"`
	Entgelt decimal.NullDecimal `json:"entgelt"`
}

// Gebot is one highest-price bid.
type Gebot struct {
	Anfrage Populated[Anfrage]  `json:"anfrage"`
	Gebot   decimal.NullDecimal `json:"gebot"`
}

type Konflikt struct {
	ID                                       string                     `json:"_id"`
	KonfliktTyp                              string                     `json:"konfliktTyp"`
	Status                                   string                     `json:"status"`
	AusloesenderKapazitaetstopf              Populated[Kapazitaetstopf] `json:"ausloesenderKapazitaetstopf"`
	AusloesenderSlot                         Populated[Slot]            `json:"ausloesenderSlot"`
	BeteiligteAnfragen                       []Populated[Anfrage]       `json:"beteiligteAnfragen"`
	ReihungEntgelt                           []Reihung                  `json:"ReihungEntgelt"`
	ListeAnfragenMitVerzicht                 []Populated[Anfrage]       `json:"ListeAnfragenMitVerzicht"`
	ListeAbgelehnterAnfragenEntgeltvergleich []Populated[Anfrage]       `json:"ListeAbgelehnterAnfragenEntgeltvergleich"`
	ListeGeboteHoechstpreis                  []Gebot                    `json:"ListeGeboteHoechstpreis"`
	Notizen                                  string                     `json:"notizen,omitempty"`
}

// IsTopfKonflikt reports whether a capacity pot triggered the conflict.
// Documents without a type are treated as pot conflicts.
func (k Konflikt) IsTopfKonflikt() bool {
	return k.KonfliktTyp != KonfliktTypSlot
}

// KonfliktDetail is the payload of GET /konflikte/:id.
type KonfliktDetail struct {
	Konflikt  Konflikt `json:"konflikt"`
	GruppenID string   `json:"gruppenId,omitempty"`
}

type KonfliktGruppe struct {
	ID                 string     `json:"_id"`
	Status             string     `json:"status"`
	GruppenSchluessel  string     `json:"gruppenSchluessel,omitempty"`
	BeteiligteAnfragen []Anfrage  `json:"beteiligteAnfragen"`
	KonflikteInGruppe  []Konflikt `json:"konflikteInGruppe"`
}

// Summary rows.

type StatusCounts map[string]int

type AnfrageSummaryRow struct {
	EVU           string       `json:"evu"`
	Verkehrsart   string       `json:"verkehrsart"`
	TotalAnfragen int          `json:"totalAnfragen"`
	StatusCounts  StatusCounts `json:"statusCounts"`
}

type Belegung struct {
	Frei     int `json:"frei"`
	Einfach  int `json:"einfach"`
	Mehrfach int `json:"mehrfach"`
}

type SlotSummaryRow struct {
	Linie       string   `json:"linie"`
	Abschnitt   string   `json:"abschnitt"`
	Verkehrsart string   `json:"verkehrsart"`
	Verkehrstag string   `json:"verkehrstag"`
	AnzahlSlots int      `json:"anzahlSlots"`
	MinKW       int      `json:"minKW"`
	MaxKW       int      `json:"maxKW"`
	Belegung    Belegung `json:"belegung"`
}

type TopfSummaryRow struct {
	Abschnitt    string `json:"abschnitt"`
	Verkehrsart  string `json:"verkehrsart"`
	MinKW        int    `json:"minKW"`
	MaxKW        int    `json:"maxKW"`
	AnzahlToepfe int    `json:"anzahlToepfe"`
	OhneKonflikt int    `json:"ohneKonflikt"`
	MitKonflikt  int    `json:"mitKonflikt"`
}

// SlotMuster identifies slots sharing one timetable pattern.
type SlotMuster struct {
	Von         string `json:"von"`
	Bis         string `json:"bis"`
	Abschnitt   string `json:"abschnitt,omitempty"`
	Verkehrsart string `json:"verkehrsart"`
	Abfahrt     Zeit   `json:"abfahrt"`
	Ankunft     Zeit   `json:"ankunft"`
}

type SlotTyp struct {
	SlotMuster SlotMuster `json:"slotMuster"`
	AnzahlMoFr int        `json:"anzahlMoFr"`
	KWsMoFr    []int      `json:"kwsMoFr"`
	AnzahlSaSo int        `json:"anzahlSaSo"`
	KWsSaSo    []int      `json:"kwsSaSo"`
}

type SlotCounterGroup struct {
	Abschnitt string    `json:"abschnitt"`
	SlotTypen []SlotTyp `json:"slotTypen"`
}
