package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleAggregations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var start, end *core.Date
	if v := q.Get("start"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, core.Validationf("invalid start date %q", v))
			return
		}
		start = &d
	}
	if v := q.Get("end"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, core.Validationf("invalid end date %q", v))
			return
		}
		end = &d
	}

	report, err := s.aggregations.Aggregate(r.Context(), UserID(r.Context()), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
