package web

import (
	"fmt"
	"time"

	"rangepick/internal/dates"
	"rangepick/internal/modifier"
)

// clickOutcome is merged into the state answer of a click.
type clickOutcome struct {
	Ignored bool
	Closed  bool
}

type dayDTO struct {
	Date      string   `json:"date"`
	Modifiers []string `json:"modifiers"`
	// Label is the focus-dependent hint of a selectable day.
	Label string `json:"label,omitempty"`
}

// stateResponse is the JSON shape of a session.
type stateResponse struct {
	ID                string   `json:"id"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	Focus             string   `json:"focus"`
	Month             string   `json:"month"`
	Today             string   `json:"today"`
	FirstFocusableDay string   `json:"first_focusable_day"`
	Days              []dayDTO `json:"days"`

	Ignored *bool `json:"ignored,omitempty"`
	Closed  *bool `json:"closed,omitempty"`
}

func isoOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return dates.ISO(t)
}

// stateOf renders sess. The caller holds sess.mu.
func (s *Server) stateOf(sess *session, extra *clickOutcome) stateResponse {
	ctrl := sess.ctrl
	month := ctrl.Window().Month
	mods := ctrl.Modifiers()

	resp := stateResponse{
		ID:                sess.id,
		StartDate:         isoOrEmpty(sess.props.Range.Start),
		EndDate:           isoOrEmpty(sess.props.Range.End),
		Focus:             sess.props.Focus.String(),
		Month:             month.Format(dates.MonthFormat),
		Today:             isoOrEmpty(ctrl.Today()),
		FirstFocusableDay: isoOrEmpty(ctrl.FirstFocusableDay(month)),
		Days:              make([]dayDTO, 0, len(mods)),
	}

	hint := s.phrases.ChooseDate(sess.props.Focus)
	for _, d := range ctrl.Days() {
		set := mods[dates.ISO(d)]
		dto := dayDTO{Date: dates.ISO(d), Modifiers: set.Strings()}
		if set.Has(modifier.Valid) {
			dto.Label = fmt.Sprintf(hint, dates.Localized(d))
		}
		resp.Days = append(resp.Days, dto)
	}

	if extra != nil {
		ignored, closed := extra.Ignored, extra.Closed
		resp.Ignored, resp.Closed = &ignored, &closed
	}
	return resp
}
