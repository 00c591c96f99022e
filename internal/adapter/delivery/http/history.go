package http

import (
	"net/http"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/history"
)

const (
	historyCookieName   = "recent_links"
	historyCookieMaxAge = 30 * 24 * time.Hour
)

// readHistory loads the caller's recent links. A missing or malformed cookie
// yields an empty history.
func readHistory(r *http.Request) *history.Log {
	c, err := r.Cookie(historyCookieName)
	if err != nil {
		return history.New(history.DefaultCapacity)
	}

	return history.Parse(c.Value, history.DefaultCapacity)
}

func writeHistory(w http.ResponseWriter, recent *history.Log) {
	http.SetCookie(w, &http.Cookie{
		Name:     historyCookieName,
		Value:    recent.String(),
		Path:     "/",
		MaxAge:   int(historyCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
