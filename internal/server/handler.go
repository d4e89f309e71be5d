package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/howard-nolan/chatrelay/internal/chat"
)

// maxBodyBytes caps the chat request body.
const maxBodyBytes = 1 << 20

// chatRequest keeps "message" raw so the validator can tell a missing
// field, a null and a non-string apart from a real string.
type chatRequest struct {
	Message json.RawMessage `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// writeJSON sets the content type, writes the status and encodes v.
// Headers must be set before WriteHeader; after that they're locked in.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleHealth is a liveness probe. It never looks at provider state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Healthy"})
}

// handlePreflight answers OPTIONS with an empty 204. The CORS middleware
// has already added the Access-Control headers by the time we get here.
func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleChat handles POST /api/chat and its /api/message alias.
//
// Only malformed input produces a 400. Everything that goes wrong after
// validation is answered with a 200 carrying a fallback reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug().Err(err).Msg("chat: undecodable request body")
		s.metrics.ObserveInvalidRequest()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := chat.ParseMessage(req.Message)
	if err != nil {
		s.metrics.ObserveInvalidRequest()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Last line of defence for a Replier that panics; *chat.Service
	// recovers on its own, other implementations might not.
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("panic", fmt.Sprint(rec)).Msg("chat: replier panicked, using fallback")
			s.writeFallback(w, message)
		}
	}()

	reply, err := s.replier.Reply(r.Context(), message)
	if err != nil {
		if chat.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("chat: unexpected error from replier, using fallback")
		s.writeFallback(w, message)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply.Text})
}

func (s *Server) writeFallback(w http.ResponseWriter, message string) {
	fb := chat.ResolveFallback(message, s.cfg.Provider.FakeModeEnabled())
	writeJSON(w, http.StatusOK, chatResponse{Reply: fb.Text})
}
