package room

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/room-director/internal/config"
	"github.com/jwebster45206/room-director/internal/engine"
	"github.com/jwebster45206/room-director/internal/services"
	"github.com/jwebster45206/room-director/pkg/world"
)

// Game owns the world and the per-room controllers. All methods must be
// called on the engine loop.
type Game struct {
	w      *world.World
	eng    *engine.Engine
	cfg    *config.Config
	llm    services.LLM
	logger *slog.Logger

	rooms    map[int]*Room
	notifier Notifier
}

func NewGame(w *world.World, eng *engine.Engine, cfg *config.Config, llm services.LLM, logger *slog.Logger) *Game {
	g := &Game{
		w:      w,
		eng:    eng,
		cfg:    cfg,
		llm:    llm,
		logger: logger,
		rooms:  make(map[int]*Room),
	}

	w.OnMove(func(obj, from, to *world.Object) {
		if from != nil && from.Kind() == world.KindRoom {
			g.Controller(from).ObjectLeft(obj)
		}
		if to != nil && to.Kind() == world.KindRoom {
			g.Controller(to).ObjectArrived(obj)
		}
	})

	return g
}

func (g *Game) World() *world.World { return g.w }

// SetNotifier wires structured room events to an external transport. Existing
// controllers pick it up too.
func (g *Game) SetNotifier(n Notifier) {
	g.notifier = n
	for _, r := range g.rooms {
		r.notifier = n
	}
}

// Controller returns the controller for a room object, creating it (and
// seeding the room's persistent attributes) on first use.
func (g *Game) Controller(obj *world.Object) *Room {
	if r, ok := g.rooms[obj.ID()]; ok {
		return r
	}
	initRoomAttrs(obj)
	r := newRoom(g.w, obj, g.cfg, g.eng, g.llm, g.logger)
	r.notifier = g.notifier
	g.rooms[obj.ID()] = r
	return r
}

// CreateRoom makes a new managed room.
func (g *Game) CreateRoom(key string) *world.Object {
	obj := g.w.Create(key, world.KindRoom)
	g.Controller(obj)
	return obj
}

// CreateCharacter makes a character and places it in a room.
func (g *Game) CreateCharacter(key string, location *world.Object) *world.Object {
	obj := g.w.Create(key, world.KindCharacter)
	g.w.Move(obj, location)
	return obj
}

// Say handles one line of player speech: echo to the room, then hand it to
// the room's speech dispatcher.
func (g *Game) Say(speaker *world.Object, message string) error {
	loc := speaker.Location()
	if loc == nil || loc.Kind() != world.KindRoom {
		return fmt.Errorf("speaker %s is not in a room", speaker.Dbref())
	}
	g.w.Broadcast(loc, fmt.Sprintf("%s says, %q", speaker.Key(), message))
	g.Controller(loc).HandleSpeech(speaker, message)
	return nil
}

// Dig creates, links or removes exits between rooms:
//
//	Dig(room, "north", "Kitchen")  creates the room Kitchen and links it
//	Dig(room, "Library", "#123")   links to an existing room by dbref
//	Dig(room, "north", "")         removes the exit and its return link
//
// Cardinal exits get their conventional reverse name on the return link;
// anything else uses the last word of the origin room's key.
func (g *Game) Dig(from *world.Object, exitName, targetArg string) (string, error) {
	if from == nil || from.Kind() != world.KindRoom {
		return "", fmt.Errorf("dig origin is not a room")
	}
	exitName = strings.TrimSpace(exitName)
	if exitName == "" {
		return "", fmt.Errorf("usage: dig <exitname> <RoomKey|#dbref>  OR  dig <exitname>")
	}

	existing := world.FindExit(from, exitName)
	targetArg = strings.TrimSpace(targetArg)

	// Remove mode.
	if targetArg == "" {
		if existing == nil {
			return "", fmt.Errorf("no exit named '%s' here", exitName)
		}

		dest := g.w.Get(destinationID(existing))
		backName := backExitName(existing.Key(), from.Key())
		g.w.Delete(existing)

		if dest != nil {
			if backEx := world.FindExit(dest, backName); backEx != nil && destinationID(backEx) == from.ID() {
				g.w.Delete(backEx)
				return fmt.Sprintf("Removed exit '%s' and return link '%s'.", exitName, backName), nil
			}
		}
		return fmt.Sprintf("Removed exit '%s'.", exitName), nil
	}

	// Create/link mode.
	target, createdNew, err := g.resolveDigTarget(targetArg)
	if err != nil {
		return "", err
	}

	if existing != nil {
		existing.SetAttr(world.AttrDestination, target.ID())
	} else {
		g.w.CreateExit(from, target, exitName)
	}

	backName := backExitName(exitName, from.Key())
	if !hasExitTo(target, backName, from) {
		g.w.CreateExit(target, from, backName)
	}

	if createdNew {
		return fmt.Sprintf("Created room '%s' and linked '%s' (back: '%s').", target.Key(), exitName, backName), nil
	}
	return fmt.Sprintf("Linked '%s' to %s (back: '%s').", exitName, target.Key(), backName), nil
}

func (g *Game) resolveDigTarget(arg string) (*world.Object, bool, error) {
	if strings.HasPrefix(arg, "#") {
		target := g.w.FindDbref(arg)
		if target == nil {
			return nil, false, fmt.Errorf("no object found for %s", arg)
		}
		if target.Kind() != world.KindRoom {
			return nil, false, fmt.Errorf("%s is not a room", arg)
		}
		return target, false, nil
	}
	return g.CreateRoom(arg), true, nil
}

func destinationID(exit *world.Object) int {
	switch v := exit.Attr(world.AttrDestination).(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func hasExitTo(room *world.Object, keyName string, dest *world.Object) bool {
	low := strings.ToLower(keyName)
	for _, obj := range room.Contents() {
		if world.IsExit(obj) && strings.ToLower(obj.Key()) == low && destinationID(obj) == dest.ID() {
			return true
		}
	}
	return false
}

// backExitName names the return link: the cardinal reverse when the exit is
// a cardinal direction, otherwise the last word of the origin room's key.
func backExitName(exitName, originKey string) string {
	if rev := world.ReverseDirection(strings.ToLower(exitName)); rev != "" {
		return rev
	}
	words := strings.Fields(strings.TrimSpace(originKey))
	if len(words) == 0 {
		return "back"
	}
	return words[len(words)-1]
}
