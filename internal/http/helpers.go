package http

import (
	"net/http"
	"strings"
)

// queryParam returns the trimmed, sanitized query value for key.
func queryParam(r *http.Request, key string) string {
	return sanitizeInput(r.URL.Query().Get(key))
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
