package web

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (s *Server) polls(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if _, err := s.svc.Polls.Create(r.Context(), identity(r), r.PostForm.Get("question"), r.PostForm["option"]); err != nil {
			s.fail(w, r, err, "/polls")
			return
		}
		http.Redirect(w, r, "/polls", http.StatusSeeOther)
		return
	}

	list, err := s.svc.Polls.List(r.Context(), identity(r))
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, "polls", "Polls", list)
}

func (s *Server) vote(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(r, "poll_id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	idx, err := strconv.Atoi(mux.Vars(r)["option_index"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := s.svc.Polls.Vote(r.Context(), identity(r), pollID, idx); err != nil {
		s.fail(w, r, err, "/polls")
		return
	}
	http.Redirect(w, r, "/polls", http.StatusSeeOther)
}

func (s *Server) closePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.svc.Polls.Close(r.Context(), identity(r), pollID); err != nil {
		s.fail(w, r, err, "/polls")
		return
	}
	http.Redirect(w, r, "/polls", http.StatusSeeOther)
}
