package forms

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	slotsdk "slotconsole/sdk/go"
)

// SlotForm is the slot batch template: one slot pattern created for every
// calendar week of the period.
type SlotForm struct {
	Linienbezeichnung string          `validate:"required"`
	Von               string          `validate:"required"`
	Bis               string          `validate:"required"`
	Abschnitt         string          `validate:"required"`
	AbfahrtStunde     int             `validate:"min=0,max=23"`
	AbfahrtMinute     int             `validate:"min=0,max=59"`
	AnkunftStunde     int             `validate:"min=0,max=23"`
	AnkunftMinute     int             `validate:"min=0,max=59"`
	Verkehrstag       string          `validate:"oneof=täglich Mo-Fr Sa+So"`
	Grundentgelt      decimal.Decimal `validate:"gte=0"`
	Verkehrsart       string          `validate:"oneof=SPFV SPNV SGV"`
	ZeitraumStart     string          `validate:"required,datetime=2006-01-02"`
	ZeitraumEnde      string          `validate:"required,datetime=2006-01-02"`
}

// DefaultSlotForm is the empty template.
func DefaultSlotForm() SlotForm {
	return SlotForm{
		AbfahrtStunde: 8,
		AnkunftStunde: 9,
		Verkehrstag:   "täglich",
		Grundentgelt:  decimal.NewFromInt(100),
		Verkehrsart:   "SPFV",
	}
}

// Ok validates the form.
func (f SlotForm) Ok() (FieldErrors, bool) {
	fe := check(f)
	return fe, len(fe) == 0
}

// SlotBatchPayload is the body of POST /slots/massen-erstellung.
type SlotBatchPayload struct {
	Von               string       `json:"von"`
	Bis               string       `json:"bis"`
	Abschnitt         string       `json:"Abschnitt"`
	Abfahrt           slotsdk.Zeit `json:"Abfahrt"`
	Ankunft           slotsdk.Zeit `json:"Ankunft"`
	Verkehrstag       string       `json:"Verkehrstag"`
	Grundentgelt      json.Number  `json:"Grundentgelt"`
	Verkehrsart       string       `json:"Verkehrsart"`
	Linienbezeichnung string       `json:"Linienbezeichnung"`
	ZeitraumStart     string       `json:"zeitraumStart"`
	ZeitraumEnde      string       `json:"zeitraumEnde"`
}

// Payload converts the flat fields into the nested request shape.
func (f SlotForm) Payload() SlotBatchPayload {
	return SlotBatchPayload{
		Von:               f.Von,
		Bis:               f.Bis,
		Abschnitt:         f.Abschnitt,
		Abfahrt:           slotsdk.Zeit{Stunde: f.AbfahrtStunde, Minute: f.AbfahrtMinute},
		Ankunft:           slotsdk.Zeit{Stunde: f.AnkunftStunde, Minute: f.AnkunftMinute},
		Verkehrstag:       f.Verkehrstag,
		Grundentgelt:      json.Number(f.Grundentgelt.String()),
		Verkehrsart:       f.Verkehrsart,
		Linienbezeichnung: f.Linienbezeichnung,
		ZeitraumStart:     f.ZeitraumStart,
		ZeitraumEnde:      f.ZeitraumEnde,
	}
}

// SlotBatchCreator creates slot batches.
type SlotBatchCreator interface {
	CreateSlotBatch(ctx context.Context, payload any) (slotsdk.SlotBatchResult, error)
}

// SubmitSlots validates and posts the template. On success the returned
// form is reset to defaults.
func SubmitSlots(ctx context.Context, c SlotBatchCreator, f SlotForm) (SlotForm, Result) {
	if fe, ok := f.Ok(); !ok {
		return f, invalid(fe)
	}
	res, err := c.CreateSlotBatch(ctx, f.Payload())
	if err != nil {
		return f, Result{Message: slotsdk.DetailedMessage(err, FailureFallback), Err: err}
	}
	msg := fmt.Sprintf("Erfolg! %d Slots wurden erstellt. Fehler: %d.", len(res.ErstellteSlots), len(res.Fehler))
	return DefaultSlotForm(), Result{Message: msg}
}
