package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
)

func (s *Server) calendarPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "calendar", "Calendar", nil)
}

func (s *Server) apiEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.createEvent(w, r)
		return
	}

	items, err := s.svc.Calendar.List(r.Context())
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	if items == nil {
		items = []services.EventItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	var in services.EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.failJSON(w, r, fmt.Errorf("%w: malformed event", common.ErrorValidation))
		return
	}

	ev, err := s.svc.Calendar.Create(r.Context(), identity(r), in)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "id": ev.ID})
}
