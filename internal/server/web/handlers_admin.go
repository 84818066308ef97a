package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/clubhouse/internal/common"
)

func (s *Server) generateInvite(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	invite, err := s.svc.Invites.Generate(r.Context(), &id.UserID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "invite generated", "by", id.Username)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Generated Code: %s", invite.Code)
}

// listInvites prints one invite per line: code, state, creation time.
func (s *Server) listInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := s.svc.Invites.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	var b strings.Builder
	for _, inv := range invites {
		state := "unused"
		if inv.Used {
			state = "used"
			if inv.UsedBy != nil {
				state = fmt.Sprintf("used by #%d", *inv.UsedBy)
			}
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\n", inv.Code, state, inv.CreatedAt.UTC().Format(common.EventTimeLayout))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}
