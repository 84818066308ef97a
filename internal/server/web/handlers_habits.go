package web

import "net/http"

func (s *Server) habits(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if _, err := s.svc.Habits.Create(r.Context(), identity(r), r.PostFormValue("name"), r.PostFormValue("frequency")); err != nil {
			s.fail(w, r, err, "/habits")
			return
		}
		http.Redirect(w, r, "/habits", http.StatusSeeOther)
		return
	}

	list, err := s.svc.Habits.ListToday(r.Context(), identity(r))
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, "habits", "Habits", list)
}

func (s *Server) toggleHabit(w http.ResponseWriter, r *http.Request) {
	habitID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, err := s.svc.Habits.Toggle(r.Context(), identity(r), habitID); err != nil {
		s.fail(w, r, err, "/habits")
		return
	}
	http.Redirect(w, r, "/habits", http.StatusSeeOther)
}
