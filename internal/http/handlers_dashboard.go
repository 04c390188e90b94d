package http

import (
	"net/http"
	"strconv"

	applog "expensedash/internal/log"
)

type analyticsResponse struct {
	Analytics analyticsJSON `json:"analytics"`
	Summary   summaryJSON   `json:"summary"`
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, s.deps.Today)
	if err != nil {
		s.writeError(w, r, applog.OpCompute, err)
		return
	}
	analytics, summary, err := s.deps.Analytics.Summary(r.Context(), asOf)
	if err != nil {
		s.writeError(w, r, applog.OpCompute, err)
		return
	}
	NewResponse().Data(analyticsResponse{
		Analytics: toAnalyticsJSON(analytics),
		Summary:   toSummaryJSON(summary),
	}).Write(w)
}

// handleDashboard serves the session view. The session reloads when it
// has never loaded, when a different reference date is asked for, or on
// ?refresh=true. A failed reload still serves the last good state with
// lastError set.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, s.deps.Today)
	if err != nil {
		s.writeError(w, r, applog.OpRefresh, err)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	st := s.deps.Session.State()
	if force || st.Seq == 0 || !st.Analytics.AsOf.Equal(asOf.Time) {
		st, _, err = s.deps.Session.Refresh(r.Context(), asOf)
		if err != nil && st.Seq == 0 {
			s.writeError(w, r, applog.OpRefresh, err)
			return
		}
	}

	b := NewResponse().Data(toDashboardJSON(st))
	if st.LastError != "" {
		b.Notify(NotificationWarning, "Showing data from the last successful load", 5000)
	}
	b.Write(w)
}
