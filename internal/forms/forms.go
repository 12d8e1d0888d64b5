// Package forms holds the creation forms for Anfragen and slot batches:
// flat field values, validation and the nested payload the backend expects.
package forms

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FailureFallback is shown when the backend rejects without a message.
const FailureFallback = "Ein Fehler ist aufgetreten."

// InvalidMessage prefixes local validation failures.
const InvalidMessage = "Eingaben ungültig:"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// FieldErrors maps a field path (e.g. "Abschnitte[0].Von") to a message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fe[k]
	}
	return strings.Join(parts, ", ")
}

func check(form any) FieldErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{"": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		ns := fe.StructNamespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		out[ns] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Pflichtfeld"
	case "min", "gte":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("mindestens %s Einträge", fe.Param())
		}
		return fmt.Sprintf("muss >= %s sein", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("muss <= %s sein", fe.Param())
	case "oneof":
		return fmt.Sprintf("erlaubt: %s", fe.Param())
	case "email":
		return "keine gültige E-Mail-Adresse"
	case "datetime":
		return "Datum im Format JJJJ-MM-TT erwartet"
	}
	return fmt.Sprintf("ungültig (%s)", fe.Tag())
}

// Result is the outcome of a form submission.
type Result struct {
	Message string
	Err     error
	Fields  FieldErrors
}

// OK reports whether the submission succeeded.
func (r Result) OK() bool { return r.Err == nil }

func invalid(fe FieldErrors) Result {
	return Result{Message: InvalidMessage + " " + fe.Error(), Err: fe, Fields: fe}
}
