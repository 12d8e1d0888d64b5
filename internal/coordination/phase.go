package coordination

import "errors"

// Group statuses as delivered by the backend.
const (
	StatusOffen                     = "offen"
	StatusInBearbeitungVerzicht     = "in_bearbeitung_verzicht"
	StatusInBearbeitungEntgelt      = "in_bearbeitung_entgelt"
	StatusInBearbeitungHoechstpreis = "in_bearbeitung_hoechstpreis"
	StatusTeilweiseGeloest          = "teilweise_geloest"
	StatusVollstaendigGeloest       = "vollstaendig_geloest"
	StatusFinalAbgelehnt            = "final_abgelehnt"
)

// Assignment statuses of requests waiting for the highest-price round.
const (
	WartetHoechstpreisTopf = "wartet_hoechstpreis_topf"
	WartetHoechstpreisSlot = "wartet_hoechstpreis_slot"
)

var (
	ErrBusy           = errors.New("action already in progress")
	ErrPhaseClosed    = errors.New("phase not active for group status")
	ErrUnknownRequest = errors.New("request not part of this step")
	ErrNotLoaded      = errors.New("group not loaded")
	ErrWithinQuota    = errors.New("operator within quota")

	// ErrSlotCountUnknown means the trigger pot arrived without its slots.
	ErrSlotCountUnknown = errors.New("slot count of trigger pot unknown")
)

// Phase is the resolution step a group is in.
type Phase int

const (
	PhaseVerzicht Phase = iota + 1
	PhaseEntgelt
	PhaseHoechstpreis
	PhaseAbgeschlossen
)

func (p Phase) String() string {
	switch p {
	case PhaseVerzicht:
		return "Verzicht & Koordination"
	case PhaseEntgelt:
		return "Entgeltvergleich"
	case PhaseHoechstpreis:
		return "Höchstpreisverfahren"
	case PhaseAbgeschlossen:
		return "Abgeschlossen"
	}
	return "unbekannt"
}

// PhaseOf maps a group status to its phase. Unknown statuses count as the
// first phase.
func PhaseOf(status string) Phase {
	switch status {
	case StatusInBearbeitungEntgelt:
		return PhaseEntgelt
	case StatusInBearbeitungHoechstpreis:
		return PhaseHoechstpreis
	case StatusTeilweiseGeloest, StatusVollstaendigGeloest, StatusFinalAbgelehnt:
		return PhaseAbgeschlossen
	}
	return PhaseVerzicht
}

// WaiversOpen reports whether waivers may still be submitted.
func WaiversOpen(status string) bool {
	switch status {
	case StatusInBearbeitungEntgelt, StatusInBearbeitungHoechstpreis, StatusTeilweiseGeloest, StatusVollstaendigGeloest:
		return false
	}
	return true
}

// ReorderOpen reports whether operator orderings may be changed and submitted.
func ReorderOpen(status string) bool { return status == StatusInBearbeitungEntgelt }

// BiddingOpen reports whether bids may be entered and submitted.
func BiddingOpen(status string) bool { return status == StatusInBearbeitungHoechstpreis }
