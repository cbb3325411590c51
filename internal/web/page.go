package web

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"rangepick/internal/dates"
	appLog "rangepick/internal/log"
	"rangepick/internal/modifier"
)

//go:embed templates/calendar.html
var calendarHTML string

var calendarTmpl = template.Must(template.New("calendar").Parse(calendarHTML))

type pageDay struct {
	Empty   bool
	Date    string
	Day     int
	Classes string
	Label   string
}

type pageMonth struct {
	Title string
	Weeks [][]pageDay
}

type pageData struct {
	ID       string
	Focus    string
	Start    string
	End      string
	Summary  string
	Weekdays []string
	Months   []pageMonth
}

// pageOf lays the session out as month tables. The caller holds sess.mu.
func (s *Server) pageOf(sess *session) pageData {
	ctrl := sess.ctrl
	win := ctrl.Window()
	mods := ctrl.Modifiers()
	focus := sess.props.Focus
	hint := s.phrases.ChooseDate(focus)

	data := pageData{
		ID:      sess.id,
		Focus:   focus.String(),
		Start:   isoOrEmpty(sess.props.Range.Start),
		End:     isoOrEmpty(sess.props.Range.End),
		Summary: s.phrases.Prompt(focus),
	}
	if data.Summary == "" {
		data.Summary = localizedOrBlank(sess.props.Range.Start) + " - " + localizedOrBlank(sess.props.Range.End)
	}
	for _, wd := range win.Weekdays() {
		data.Weekdays = append(data.Weekdays, wd.String()[:2])
	}

	for _, g := range win.Grids() {
		pm := pageMonth{Title: g.Month.Format("January 2006")}
		for _, week := range g.Weeks {
			row := make([]pageDay, 0, len(week))
			for _, d := range week {
				if d.IsZero() {
					row = append(row, pageDay{Empty: true})
					continue
				}
				set := mods[dates.ISO(d)]
				classes := append([]string{"day"}, set.Strings()...)
				if d.Month() != g.Month.Month() {
					classes = append(classes, "outside")
				}
				pd := pageDay{
					Date:    dates.ISO(d),
					Day:     d.Day(),
					Classes: strings.Join(classes, " "),
				}
				if set.Has(modifier.Valid) {
					pd.Label = fmt.Sprintf(hint, dates.Localized(d))
				}
				row = append(row, pd)
			}
			pm.Weeks = append(pm.Weeks, row)
		}
		data.Months = append(data.Months, pm)
	}
	return data
}

func localizedOrBlank(t time.Time) string {
	if t.IsZero() {
		return "--/--/----"
	}
	return dates.Localized(t)
}

// handleCalendarPage renders the session as a static HTML grid. The root
// element carries data-ready="true" so headless capture can wait on it.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	sess.mu.Lock()
	data := s.pageOf(sess)
	sess.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := calendarTmpl.Execute(w, data); err != nil {
		appLog.Error("calendar page render failed", err, "id", id)
	}
}
