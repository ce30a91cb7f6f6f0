// Package handlers exposes the room director over HTTP: speech ingestion,
// room inspection and building, health, and a room-event SSE stream.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-director/internal/engine"
	"github.com/jwebster45206/room-director/internal/room"
	"github.com/jwebster45206/room-director/pkg/world"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

type SayRequest struct {
	Speaker string `json:"speaker"` // dbref, e.g. "#12"
	Message string `json:"message"`
}

type SayResponse struct {
	Room     string `json:"room"`
	Accepted bool   `json:"accepted"`
}

// SayHandler ingests one line of player speech.
type SayHandler struct {
	game   *room.Game
	eng    *engine.Engine
	logger *slog.Logger
}

func NewSayHandler(game *room.Game, eng *engine.Engine, logger *slog.Logger) *SayHandler {
	return &SayHandler{
		game:   game,
		eng:    eng,
		logger: logger,
	}
}

// ServeHTTP handles POST /v1/say
func (h *SayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for say endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req SayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Speaker) == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "speaker and message are required")
		return
	}

	requestID := uuid.New().String()
	h.logger.Debug("Say received", "request_id", requestID, "speaker", req.Speaker)

	var roomDbref string
	var sayErr error
	h.eng.Call(func() {
		speaker := h.game.World().FindDbref(req.Speaker)
		if speaker == nil || !world.IsCharacter(speaker) {
			sayErr = errSpeakerNotFound
			return
		}
		if loc := speaker.Location(); loc != nil {
			roomDbref = loc.Dbref()
		}
		sayErr = h.game.Say(speaker, req.Message)
	})

	if sayErr != nil {
		h.logger.Warn("Say rejected", "request_id", requestID, "speaker", req.Speaker, "error", sayErr)
		writeError(w, h.logger, http.StatusNotFound, sayErr.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(SayResponse{Room: roomDbref, Accepted: true}); err != nil {
		h.logger.Error("Failed to encode say response", "error", err)
	}
}

var errSpeakerNotFound = &notFoundError{"speaker not found"}

type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }
