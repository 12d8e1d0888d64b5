package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Variant is a badge colour class.
type Variant string

const (
	Success   Variant = "success"
	Danger    Variant = "danger"
	Warning   Variant = "warning"
	Info      Variant = "info"
	Primary   Variant = "primary"
	Dark      Variant = "dark"
	Secondary Variant = "secondary"
)

var variantColors = map[Variant]lipgloss.Color{
	Success:   lipgloss.Color("2"),
	Danger:    lipgloss.Color("1"),
	Warning:   lipgloss.Color("3"),
	Info:      lipgloss.Color("6"),
	Primary:   lipgloss.Color("4"),
	Dark:      lipgloss.Color("8"),
	Secondary: lipgloss.Color("7"),
}

func VerkehrsartVariant(v string) Variant {
	switch v {
	case "SPFV":
		return Danger
	case "SPNV":
		return Success
	case "SGV":
		return Primary
	case "ALLE":
		return Dark
	}
	return Secondary
}

func GruppeStatusVariant(s string) Variant {
	switch s {
	case "offen":
		return Warning
	case "vollstaendig_geloest":
		return Success
	}
	return Info
}

func KonfliktStatusVariant(s string) Variant {
	switch {
	case s == "offen":
		return Warning
	case strings.HasPrefix(s, "in_bearbeitung"):
		return Info
	case s == "geloest":
		return Success
	case s == "eskaliert":
		return Danger
	}
	return Secondary
}

// AnfrageStatusVariant colours request and assignment statuses by prefix.
func AnfrageStatusVariant(s string) Variant {
	switch {
	case strings.HasPrefix(s, "bestaetigt"):
		return Success
	case strings.HasPrefix(s, "abgelehnt"):
		return Danger
	case strings.HasPrefix(s, "wartet"):
		return Warning
	}
	return Info
}
