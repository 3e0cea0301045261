package server

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/rs/zerolog/log"
)

// RequestLogger is a middleware to log HTTP requests.
//
// The response writer keeps its optional interfaces, so streaming and
// websocket handlers behind it can still flush and hijack.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", m.Code).
			Int64("bytes", m.Written).
			Str("ip", r.RemoteAddr).
			Dur("duration", m.Duration).
			Msg("Request processed")
	})
}
