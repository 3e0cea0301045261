package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/beetlebugorg/geostream/pkg/geostream"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// maxCloseReason is the payload left for the reason text of a close frame.
const maxCloseReason = 123

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleStream writes the dataset as newline-delimited features while it is
// decoded from disk. The cache is not used.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	stream, err := geostream.Open(r.Context(), ds.Path, s.Decode)
	if err != nil {
		writeError(w, loadStatus(err), err)
		return
	}
	defer stream.Close()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	fw := geostream.NewFeatureWriter(w, true)
	for f := range stream.C() {
		if err := fw.Write(f); err != nil {
			log.Debug().Err(err).Str("dataset", ds.Name).Msg("Stream client gone")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("dataset", ds.Name).Int("sent", fw.Count()).Msg("Stream failed")
	}
}

// HandleWebSocket sends one feature per text message, then a close frame:
// normal closure when the dataset ended, internal error with the reason
// when decoding failed.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	// upgrade this connection to a WebSocket connection
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// control frames are only processed while reading; a peer close or a
	// broken connection ends the stream
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	stream, err := geostream.Open(ctx, ds.Path, s.Decode)
	if err != nil {
		closeWebSocket(ws, websocket.CloseInternalServerErr, err.Error())
		return
	}
	defer stream.Close()

	sent := 0
	for f := range stream.C() {
		if err := ws.WriteJSON(f); err != nil {
			log.Debug().Err(err).Str("dataset", ds.Name).Msg("WebSocket client gone")
			return
		}
		sent++
	}

	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Str("dataset", ds.Name).Int("sent", sent).Msg("Stream failed")
		closeWebSocket(ws, websocket.CloseInternalServerErr, err.Error())
		return
	}
	closeWebSocket(ws, websocket.CloseNormalClosure, "")
}

func closeWebSocket(ws *websocket.Conn, code int, reason string) {
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
