package web

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rangepick/internal/dates"
	appLog "rangepick/internal/log"
	"rangepick/internal/modifier"
	"rangepick/internal/picker"
)

// session is one picker instance plus the caller-owned props the server
// keeps on its behalf.
type session struct {
	id string

	mu       sync.Mutex
	ctrl     *picker.Controller
	props    picker.Props
	closed   bool
	lastSeen time.Time
}

// newSession wires the controller callbacks into the session's props. The
// callbacks run inside controller calls, i.e. with mu held.
func (s *Server) newSession(props picker.Props, month time.Time) *session {
	sess := &session{
		id:       uuid.NewString(),
		props:    props,
		lastSeen: s.cal.Now(),
	}
	cb := picker.Callbacks{
		OnDatesChange: func(r modifier.Range) { sess.props.Range = r },
		OnFocusChange: func(f modifier.Focus) { sess.props.Focus = f },
		OnClose:       func(modifier.Range) { sess.closed = true },
	}
	sess.ctrl = picker.New(props, s.cal.Rules(s.cfg.MinimumNights), s.pickerOptions(month),
		picker.WithClock(s.cal.Now),
		picker.WithCallbacks(cb),
	)
	return sess
}

func (s *Server) pickerOptions(month time.Time) picker.Options {
	return picker.Options{
		KeepOpenOnSelect:  s.cfg.KeepOpenOnSelect,
		NumberOfMonths:    s.cfg.NumberOfMonths,
		EnableOutsideDays: s.cfg.EnableOutsideDays,
		WeekStart:         s.cfg.FirstWeekday(),
		InitialMonth:      month,
	}
}

// CreateSession opens a session with props on month. A zero month falls
// back to the selected start, then to the current month. Used by the
// one-shot CLI modes.
func (s *Server) CreateSession(props picker.Props, month time.Time) string {
	if month.IsZero() {
		month = props.Range.Start
	}
	if month.IsZero() {
		month = s.cal.Now()
	}
	sess := s.newSession(props, month)
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess.id
}

func (s *Server) lookup(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// withSession runs fn on the session named in the URL with its lock held,
// then answers with the session state.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session) *clickOutcome) {
	id := mux.Vars(r)["id"]
	sess, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	extra := fn(sess)
	sess.lastSeen = s.cal.Now()
	writeJSON(w, http.StatusOK, s.stateOf(sess, extra))
}

// Sessions returns how many sessions are open.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RecomputeSessions rebuilds every session's modifier map. Run it after
// availability changed or the day rolled over.
func (s *Server) RecomputeSessions() {
	s.mu.RLock()
	all := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	for _, sess := range all {
		sess.mu.Lock()
		sess.ctrl.SetRules(s.cal.Rules(s.cfg.MinimumNights))
		sess.mu.Unlock()
	}
	appLog.Debug("sessions recomputed", "count", len(all))
}

// ExpireSessions drops sessions idle for longer than maxIdle and returns
// how many were dropped.
func (s *Server) ExpireSessions(maxIdle time.Duration) int {
	now := s.cal.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastSeen)
		sess.mu.Unlock()
		if idle > maxIdle {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		appLog.Info("sessions expired", "count", n, "max_idle", maxIdle.String())
	}
	return n
}

type createRequest struct {
	Month     string `json:"month"`
	Focus     string `json:"focus"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type dateRequest struct {
	Date string `json:"date"`
}

type focusRequest struct {
	Focus string `json:"focus"`
}

type navigateRequest struct {
	Month  string `json:"month"`
	Offset int    `json:"offset"`
}

func (s *Server) parseDate(v string) (time.Time, error) {
	d, err := dates.ParseISO(v, s.cal.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	return d, nil
}

func (s *Server) parseOptionalDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return s.parseDate(v)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	props := picker.Props{Focus: modifier.FocusStart}
	if req.Focus != "" {
		f, ok := modifier.ParseFocus(req.Focus)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid focus %q", req.Focus))
			return
		}
		props.Focus = f
	}

	var err error
	if props.Range.Start, err = s.parseOptionalDate(req.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if props.Range.End, err = s.parseOptionalDate(req.EndDate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !props.Range.Start.IsZero() && !props.Range.End.IsZero() && dates.IsAfterDay(props.Range.Start, props.Range.End) {
		writeError(w, http.StatusBadRequest, "start_date is after end_date")
		return
	}

	month := s.cal.Now()
	switch {
	case req.Month != "":
		if month, err = dates.ParseMonth(req.Month, s.cal.Location()); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid month %q", req.Month))
			return
		}
	case !props.Range.Start.IsZero():
		month = props.Range.Start
	case !props.Range.End.IsZero():
		month = props.Range.End
	}

	sess := s.newSession(props, month)
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	appLog.Info("session created", "id", sess.id, "month", month.Format(dates.MonthFormat), "focus", props.Focus.String())

	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.stateOf(sess, nil))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(*session) *clickOutcome {
		return nil
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	appLog.Info("session deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.withSession(w, r, func(sess *session) *clickOutcome {
		sess.closed = false
		res := sess.ctrl.Click(day)
		if res.Handled {
			sess.ctrl.ReceiveProps(sess.props)
		}
		return &clickOutcome{Ignored: !res.Handled, Closed: sess.closed}
	})
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.withSession(w, r, func(sess *session) *clickOutcome {
		sess.ctrl.Hover(day)
		return nil
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) *clickOutcome {
		sess.ctrl.Leave()
		return nil
	})
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, ok := modifier.ParseFocus(req.Focus)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid focus %q", req.Focus))
		return
	}

	s.withSession(w, r, func(sess *session) *clickOutcome {
		sess.props.Focus = f
		sess.ctrl.ReceiveProps(sess.props)
		return nil
	})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var month time.Time
	if req.Month != "" {
		m, err := dates.ParseMonth(req.Month, s.cal.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid month %q", req.Month))
			return
		}
		month = m
	}

	s.withSession(w, r, func(sess *session) *clickOutcome {
		target := month
		if target.IsZero() {
			target = sess.ctrl.Window().Month.AddDate(0, req.Offset, 0)
		}
		sess.ctrl.Navigate(target)
		return nil
	})
}
