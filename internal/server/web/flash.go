package web

import (
	"encoding/base64"
	"net/http"

	"github.com/dmitrijs2005/clubhouse/internal/common"
)

// setFlash stores a one-shot message shown by the next rendered page.
func setFlash(w http.ResponseWriter, r *http.Request, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash message, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(common.FlashCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return ""
	}
	return string(b)
}
