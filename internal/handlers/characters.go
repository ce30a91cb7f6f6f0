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

type CreateCharacterRequest struct {
	Key  string `json:"key"`
	Room string `json:"room"` // room dbref
}

type CharacterView struct {
	Dbref string `json:"dbref"`
	Key   string `json:"key"`
	Room  string `json:"room"`
}

// CharactersHandler creates characters so callers have a speaker for /v1/say.
type CharactersHandler struct {
	game   *room.Game
	eng    *engine.Engine
	logger *slog.Logger
}

func NewCharactersHandler(game *room.Game, eng *engine.Engine, logger *slog.Logger) *CharactersHandler {
	return &CharactersHandler{
		game:   game,
		eng:    eng,
		logger: logger,
	}
}

// ServeHTTP handles POST /v1/characters
func (h *CharactersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for characters endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req CreateCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Key) == "" || strings.TrimSpace(req.Room) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "key and room are required")
		return
	}

	var view CharacterView
	var missing bool
	h.eng.Call(func() {
		loc := h.game.World().FindDbref(req.Room)
		if loc == nil || loc.Kind() != world.KindRoom {
			missing = true
			return
		}
		obj := h.game.CreateCharacter(strings.TrimSpace(req.Key), loc)
		view = CharacterView{
			Dbref: obj.Dbref(),
			Key:   obj.Key(),
			Room:  loc.Dbref(),
		}
	})

	if missing {
		writeError(w, h.logger, http.StatusNotFound, "Room not found")
		return
	}

	h.logger.Info("Character created", "dbref", view.Dbref, "key", view.Key, "room", view.Room)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Error("Failed to encode character response", "error", err)
	}
}
