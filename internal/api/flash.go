package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// Flash levels, used as CSS classes by the templates.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// maxFlashes keeps the cookie well under browser size limits.
const maxFlashes = 5

// addFlash queues a message for the next page the browser renders. Messages
// already queued on the request are kept.
func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, level, text string) {
	flashes := append(readFlashes(r), Flash{Level: level, Text: text})
	if len(flashes) > maxFlashes {
		flashes = flashes[len(flashes)-maxFlashes:]
	}

	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(raw)

	// Later handlers in the same request see the new queue.
	r.AddCookie(&http.Cookie{Name: FlashCookieName, Value: value})
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns queued messages and clears them.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := readFlashes(r)
	if len(flashes) == 0 {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return flashes
}

// readFlashes decodes the last flash cookie on the request. Malformed
// cookies yield nothing.
func readFlashes(r *http.Request) []Flash {
	var value string
	for _, c := range r.Cookies() {
		if c.Name == FlashCookieName {
			value = c.Value
		}
	}
	if value == "" {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}
