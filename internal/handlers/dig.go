package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/room-director/internal/engine"
	"github.com/jwebster45206/room-director/internal/room"
	"github.com/jwebster45206/room-director/pkg/world"
)

type DigRequest struct {
	Room   string `json:"room"`   // origin room dbref
	Exit   string `json:"exit"`   // exit name, e.g. "north"
	Target string `json:"target"` // room key, dbref, or "" to remove
}

type DigResponse struct {
	Result string `json:"result"`
}

// DigHandler creates, links or removes exits between rooms.
type DigHandler struct {
	game   *room.Game
	eng    *engine.Engine
	logger *slog.Logger
}

func NewDigHandler(game *room.Game, eng *engine.Engine, logger *slog.Logger) *DigHandler {
	return &DigHandler{
		game:   game,
		eng:    eng,
		logger: logger,
	}
}

// ServeHTTP handles POST /v1/dig
func (h *DigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for dig endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req DigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Room) == "" || strings.TrimSpace(req.Exit) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "room and exit are required")
		return
	}

	var result string
	var digErr error
	var missing bool
	h.eng.Call(func() {
		origin := h.game.World().FindDbref(req.Room)
		if origin == nil || origin.Kind() != world.KindRoom {
			missing = true
			return
		}
		result, digErr = h.game.Dig(origin, req.Exit, req.Target)
	})

	if missing {
		writeError(w, h.logger, http.StatusNotFound, "Origin room not found")
		return
	}
	if digErr != nil {
		h.logger.Warn("Dig rejected", "room", req.Room, "exit", req.Exit, "error", digErr)
		writeError(w, h.logger, http.StatusBadRequest, digErr.Error())
		return
	}

	h.logger.Info("Dig completed", "room", req.Room, "exit", req.Exit, "target", req.Target)
	if err := json.NewEncoder(w).Encode(DigResponse{Result: result}); err != nil {
		h.logger.Error("Failed to encode dig response", "error", err)
	}
}
