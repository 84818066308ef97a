package web

import (
	"fmt"
	"net/http"
)

func (s *Server) forumList(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.Forum.Categories(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, "forum_list", "Forum", categories)
}

func (s *Server) forumCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(r, "category_id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	view, err := s.svc.Forum.Category(r.Context(), categoryID)
	if err != nil {
		s.fail(w, r, err, "/forum")
		return
	}
	s.render(w, r, "forum_category", view.Category.Name, view)
}

func (s *Server) newThread(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(r, "category_id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if r.Method == http.MethodGet {
		view, err := s.svc.Forum.Category(r.Context(), categoryID)
		if err != nil {
			s.fail(w, r, err, "/forum")
			return
		}
		s.render(w, r, "new_thread", "New thread", view.Category)
		return
	}

	thread, err := s.svc.Forum.CreateThread(r.Context(), identity(r), categoryID, r.PostFormValue("title"), r.PostFormValue("content"))
	if err != nil {
		s.fail(w, r, err, fmt.Sprintf("/forum/%d/new", categoryID))
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/thread/%d", thread.ID), http.StatusSeeOther)
}

func (s *Server) thread(w http.ResponseWriter, r *http.Request) {
	threadID, ok := pathID(r, "thread_id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	back := fmt.Sprintf("/thread/%d", threadID)

	if r.Method == http.MethodPost {
		if _, err := s.svc.Forum.Reply(r.Context(), identity(r), threadID, r.PostFormValue("content")); err != nil {
			s.fail(w, r, err, back)
			return
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	view, err := s.svc.Forum.Thread(r.Context(), threadID)
	if err != nil {
		s.fail(w, r, err, "/forum")
		return
	}
	s.render(w, r, "thread", view.Thread.Title, view)
}
