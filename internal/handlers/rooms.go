package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/jwebster45206/room-director/internal/engine"
	"github.com/jwebster45206/room-director/internal/room"
	"github.com/jwebster45206/room-director/pkg/fact"
	"github.com/jwebster45206/room-director/pkg/world"
)

var dbrefPathPattern = regexp.MustCompile(`^#\d+$`)

type NotableView struct {
	Dbref     string `json:"dbref"`
	Key       string `json:"key"`
	Shortdesc string `json:"shortdesc"`
}

type ExitView struct {
	Key         string `json:"key"`
	Destination string `json:"destination"`
}

type RoomView struct {
	Dbref         string        `json:"dbref"`
	Key           string        `json:"key"`
	Desc          string        `json:"desc"`
	AutoDesc      bool          `json:"auto_desc"`
	DirectorFacts []string      `json:"director_facts"`
	PinnedFacts   []string      `json:"pinned_facts"`
	Notables      []NotableView `json:"notables"`
	Exits         []ExitView    `json:"exits"`
	Memory        string        `json:"memory"`
}

type CreateRoomRequest struct {
	Key string `json:"key"`
}

// RoomsHandler inspects and creates rooms.
// Routes:
// POST /v1/rooms          - Create a new managed room
// GET  /v1/rooms/{dbref}  - Read a room view
type RoomsHandler struct {
	game   *room.Game
	eng    *engine.Engine
	logger *slog.Logger
}

func NewRoomsHandler(game *room.Game, eng *engine.Engine, logger *slog.Logger) *RoomsHandler {
	return &RoomsHandler{
		game:   game,
		eng:    eng,
		logger: logger,
	}
}

func (h *RoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/rooms"), "/")

	switch r.Method {
	case http.MethodPost:
		if path != "" {
			writeError(w, h.logger, http.StatusBadRequest, "POST takes no room dbref")
			return
		}
		h.handleCreate(w, r)
	case http.MethodGet:
		if !dbrefPathPattern.MatchString(path) {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid room dbref. Expected /v1/rooms/#<number>")
			return
		}
		h.handleRead(w, path)
	default:
		h.logger.Warn("Method not allowed for rooms endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
	}
}

func (h *RoomsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "key is required")
		return
	}

	var view RoomView
	h.eng.Call(func() {
		obj := h.game.CreateRoom(strings.TrimSpace(req.Key))
		view = h.buildView(obj)
	})

	h.logger.Info("Room created", "dbref", view.Dbref, "key", view.Key)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Error("Failed to encode room response", "error", err)
	}
}

func (h *RoomsHandler) handleRead(w http.ResponseWriter, dbref string) {
	var view RoomView
	var found bool
	h.eng.Call(func() {
		obj := h.game.World().FindDbref(dbref)
		if obj == nil || obj.Kind() != world.KindRoom {
			return
		}
		found = true
		view = h.buildView(obj)
	})

	if !found {
		writeError(w, h.logger, http.StatusNotFound, "Room not found")
		return
	}
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Error("Failed to encode room response", "error", err)
	}
}

// buildView must run on the engine loop.
func (h *RoomsHandler) buildView(obj *world.Object) RoomView {
	ctrl := h.game.Controller(obj)

	view := RoomView{
		Dbref:         obj.Dbref(),
		Key:           obj.Key(),
		Desc:          ctrl.Desc(),
		AutoDesc:      ctrl.AutoDesc(),
		DirectorFacts: ctrl.DirectorFacts(),
		PinnedFacts:   fact.Texts(obj),
		Memory:        ctrl.MemoryText(),
	}
	if view.DirectorFacts == nil {
		view.DirectorFacts = []string{}
	}
	if view.PinnedFacts == nil {
		view.PinnedFacts = []string{}
	}

	view.Notables = []NotableView{}
	for _, o := range world.NotableProps(obj) {
		sd := o.AttrString("shortdesc")
		if sd == "" {
			sd = o.Key()
		}
		view.Notables = append(view.Notables, NotableView{
			Dbref:     o.Dbref(),
			Key:       o.Key(),
			Shortdesc: sd,
		})
	}

	view.Exits = []ExitView{}
	for _, o := range obj.Contents() {
		if !world.IsExit(o) {
			continue
		}
		dest := ""
		switch v := o.Attr(world.AttrDestination).(type) {
		case int:
			if d := h.game.World().Get(v); d != nil {
				dest = d.Dbref()
			}
		case float64:
			if d := h.game.World().Get(int(v)); d != nil {
				dest = d.Dbref()
			}
		}
		view.Exits = append(view.Exits, ExitView{Key: o.Key(), Destination: dest})
	}

	return view
}
