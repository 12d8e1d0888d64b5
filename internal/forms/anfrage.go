package forms

import (
	"context"
	"fmt"

	slotsdk "slotconsole/sdk/go"
)

// Verkehrsarten and Verkehrstage accepted by the forms.
var (
	Verkehrsarten = []string{"SPFV", "SPNV", "SGV"}
	Verkehrstage  = []string{"täglich", "Mo-Fr", "Sa+So"}
)

// Abschnitt is one desired route segment.
type Abschnitt struct {
	Von           string `validate:"required"`
	Bis           string `validate:"required"`
	AbfahrtStunde int    `validate:"min=0,max=23"`
	AbfahrtMinute int    `validate:"min=0,max=59"`
	AnkunftStunde int    `validate:"min=0,max=23"`
	AnkunftMinute int    `validate:"min=0,max=59"`
}

// AnfrageForm is the flat state of the Anfrage creation form. All methods
// return a new value; the receiver is never changed.
type AnfrageForm struct {
	Zugnummer     string      `validate:"required"`
	EVU           string      `validate:"required"`
	Email         string      `validate:"omitempty,email"`
	Verkehrsart   string      `validate:"oneof=SPFV SPNV SGV"`
	Verkehrstag   string      `validate:"oneof=täglich Mo-Fr Sa+So"`
	ZeitraumStart string      `validate:"required,datetime=2006-01-02"`
	ZeitraumEnde  string      `validate:"required,datetime=2006-01-02"`
	Abschnitte    []Abschnitt `validate:"min=1,dive"`
}

// DefaultAnfrageForm is the empty form with one 08:00-09:00 segment.
func DefaultAnfrageForm() AnfrageForm {
	return AnfrageForm{
		Verkehrsart: "SPFV",
		Verkehrstag: "täglich",
		Abschnitte:  []Abschnitt{{AbfahrtStunde: 8, AnkunftStunde: 9}},
	}
}

func (f AnfrageForm) withAbschnitte(list []Abschnitt) AnfrageForm {
	f.Abschnitte = list
	return f
}

// AddAbschnitt appends a segment (10:00-11:00 unless given).
func (f AnfrageForm) AddAbschnitt(a ...Abschnitt) AnfrageForm {
	next := make([]Abschnitt, len(f.Abschnitte), len(f.Abschnitte)+max(1, len(a)))
	copy(next, f.Abschnitte)
	if len(a) == 0 {
		a = []Abschnitt{{AbfahrtStunde: 10, AnkunftStunde: 11}}
	}
	return f.withAbschnitte(append(next, a...))
}

// RemoveAbschnitt drops segment i. The last remaining segment stays.
func (f AnfrageForm) RemoveAbschnitt(i int) AnfrageForm {
	if len(f.Abschnitte) <= 1 || i < 0 || i >= len(f.Abschnitte) {
		return f
	}
	next := make([]Abschnitt, 0, len(f.Abschnitte)-1)
	next = append(next, f.Abschnitte[:i]...)
	next = append(next, f.Abschnitte[i+1:]...)
	return f.withAbschnitte(next)
}

// UpdateAbschnitt replaces segment i.
func (f AnfrageForm) UpdateAbschnitt(i int, a Abschnitt) AnfrageForm {
	if i < 0 || i >= len(f.Abschnitte) {
		return f
	}
	next := make([]Abschnitt, len(f.Abschnitte))
	copy(next, f.Abschnitte)
	next[i] = a
	return f.withAbschnitte(next)
}

// Ok validates the form.
func (f AnfrageForm) Ok() (FieldErrors, bool) {
	fe := check(f)
	return fe, len(fe) == 0
}

// AnfragePayload is the body of POST /anfragen.
type AnfragePayload struct {
	Zugnummer                       string                  `json:"Zugnummer"`
	EVU                             string                  `json:"EVU"`
	Verkehrsart                     string                  `json:"Verkehrsart"`
	Verkehrstag                     string                  `json:"Verkehrstag"`
	Zeitraum                        slotsdk.Zeitraum        `json:"Zeitraum"`
	Email                           string                  `json:"Email"`
	ListeGewuenschterSlotAbschnitte []slotsdk.SlotAbschnitt `json:"ListeGewuenschterSlotAbschnitte"`
}

// Payload converts the flat fields into the nested request shape.
func (f AnfrageForm) Payload() AnfragePayload {
	p := AnfragePayload{
		Zugnummer:                       f.Zugnummer,
		EVU:                             f.EVU,
		Verkehrsart:                     f.Verkehrsart,
		Verkehrstag:                     f.Verkehrstag,
		Zeitraum:                        slotsdk.Zeitraum{Start: f.ZeitraumStart, Ende: f.ZeitraumEnde},
		Email:                           f.Email,
		ListeGewuenschterSlotAbschnitte: make([]slotsdk.SlotAbschnitt, len(f.Abschnitte)),
	}
	for i, a := range f.Abschnitte {
		p.ListeGewuenschterSlotAbschnitte[i] = slotsdk.SlotAbschnitt{
			Von:          a.Von,
			Bis:          a.Bis,
			Abfahrtszeit: slotsdk.Zeit{Stunde: a.AbfahrtStunde, Minute: a.AbfahrtMinute},
			Ankunftszeit: slotsdk.Zeit{Stunde: a.AnkunftStunde, Minute: a.AnkunftMinute},
		}
	}
	return p
}

// AnfrageCreator creates Anfragen.
type AnfrageCreator interface {
	CreateAnfrage(ctx context.Context, payload any) (slotsdk.Anfrage, error)
}

// SubmitAnfrage validates and posts the form. On success the returned form
// is reset to defaults; otherwise the input comes back unchanged.
func SubmitAnfrage(ctx context.Context, c AnfrageCreator, f AnfrageForm) (AnfrageForm, Result) {
	if fe, ok := f.Ok(); !ok {
		return f, invalid(fe)
	}
	created, err := c.CreateAnfrage(ctx, f.Payload())
	if err != nil {
		return f, Result{Message: slotsdk.DetailedMessage(err, FailureFallback), Err: err}
	}
	msg := fmt.Sprintf("Anfrage %q erfolgreich erstellt und wird nun geprüft.", created.AnfrageIDSprechend)
	return DefaultAnfrageForm(), Result{Message: msg}
}
