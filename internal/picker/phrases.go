package picker

import "rangepick/internal/modifier"

// Phrases are the hints render adapters show.
type Phrases struct {
	// Day cell hints, formatted with the day's display date.
	ChooseAvailableDate      string
	ChooseAvailableStartDate string
	ChooseAvailableEndDate   string

	// Picker-wide prompts.
	FocusStartDate string
	FocusEndDate   string
}

// DefaultPhrases are the English hints.
var DefaultPhrases = Phrases{
	ChooseAvailableDate:      "Choose %s as your date. It's available.",
	ChooseAvailableStartDate: "Choose %s as your check-in date. It's available.",
	ChooseAvailableEndDate:   "Choose %s as your check-out date. It's available.",
	FocusStartDate:           "Interact with the calendar and add the check-in date for your trip.",
	FocusEndDate:             "Interact with the calendar and add the check-out date for your trip.",
}

// ChooseDate picks the day hint matching the focused endpoint.
func (p Phrases) ChooseDate(f modifier.Focus) string {
	switch f {
	case modifier.FocusStart:
		return p.ChooseAvailableStartDate
	case modifier.FocusEnd:
		return p.ChooseAvailableEndDate
	default:
		return p.ChooseAvailableDate
	}
}

// Prompt is the picker-wide hint for f; empty when nothing is focused.
func (p Phrases) Prompt(f modifier.Focus) string {
	switch f {
	case modifier.FocusStart:
		return p.FocusStartDate
	case modifier.FocusEnd:
		return p.FocusEndDate
	default:
		return ""
	}
}
