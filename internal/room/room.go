// Package room implements the room-as-scene-manager layer: the speech
// dispatcher that routes "computer, ..." instructions, the debounced
// description-rewrite scheduler, and the Computer facade over the LLM
// pipelines. All world mutation in this package happens on the engine loop.
package room

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/room-director/internal/config"
	"github.com/jwebster45206/room-director/internal/engine"
	"github.com/jwebster45206/room-director/internal/services"
	"github.com/jwebster45206/room-director/pkg/affordance"
	"github.com/jwebster45206/room-director/pkg/director"
	"github.com/jwebster45206/room-director/pkg/fact"
	"github.com/jwebster45206/room-director/pkg/roomtext"
	"github.com/jwebster45206/room-director/pkg/targeting"
	"github.com/jwebster45206/room-director/pkg/world"
)

// Attribute names on room and prop objects.
const (
	attrDesc              = "desc"
	attrShortdesc         = "shortdesc"
	attrAutoDesc          = "auto_desc"
	attrDirectorFacts     = "director_facts"
	attrLastGeneratedDesc = "last_generated_desc"
	attrMemory            = "memory"
)

// DefaultRoomDesc seeds rooms that start with no description; such rooms are
// director-managed from the start.
const DefaultRoomDesc = "You are in an unfinished place. The world feels ready to grow."

const (
	keyMaxLen       = 60
	shortdescMaxLen = 140
	notableListMax  = 12
	roomFactsShown  = 15
	objFactsShown   = 10
)

var (
	unpinPattern      = regexp.MustCompile(`^(?i)unpin\s+([a-zA-Z0-9_]+)$`)
	pinPattern        = regexp.MustCompile(`^(?i)pin\s+(.+)$`)
	pinTargetSplit    = regexp.MustCompile(`(?i)\s+to\s+`)
	destroyPattern    = regexp.MustCompile(`^(destroy|delete|remove)\b`)
	editPattern       = regexp.MustCompile(`^(edit|update|change|recolor|paint)\b`)
	createVerbPattern = regexp.MustCompile(`^(?i)(create|make|manifest|summon)\s+`)
	createPattern     = regexp.MustCompile(`^(create|make|manifest|summon)\b`)
	articlePrefix     = regexp.MustCompile(`^(?i)(the|a|an)\s+`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
	hasLetter         = regexp.MustCompile(`[A-Za-z]`)
)

var titleCaser = cases.Title(language.English)

// Notifier receives structured room events for external transports such as
// the SSE stream. Calls happen on the engine loop; implementations must not
// block.
type Notifier interface {
	RoomDescUpdated(roomDbref, desc string)
	ObjectCreated(roomDbref, objectDbref, key string)
	ObjectDestroyed(roomDbref, objectDbref, key string)
	ObjectEdited(roomDbref, objectDbref string, fields []string)
	IntentSuggested(roomDbref, intent, command string)
}

// Room is the per-room controller: the speech dispatcher plus the transient
// scheduler state that gates LLM work. Transient fields reset on restart and
// are never persisted.
type Room struct {
	w        *world.World
	obj      *world.Object
	cfg      *config.Config
	eng      *engine.Engine
	logger   *slog.Logger
	computer *Computer
	notifier Notifier

	pendingRewrite  *engine.Timer
	rewriteInFlight bool
	lastLLMCall     time.Time
	lastRewrite     time.Time

	// now is swappable for tests.
	now func() time.Time
}

func newRoom(w *world.World, obj *world.Object, cfg *config.Config, eng *engine.Engine, llm services.LLM, logger *slog.Logger) *Room {
	return &Room{
		w:        w,
		obj:      obj,
		cfg:      cfg,
		eng:      eng,
		logger:   logger,
		computer: NewComputer(w, obj, cfg, llm, logger),
		now:      time.Now,
	}
}

// Object returns the underlying world object.
func (r *Room) Object() *world.Object { return r.obj }

// Computer returns the room's LLM facade.
func (r *Room) Computer() *Computer { return r.computer }

// Desc returns the room's current description.
func (r *Room) Desc() string { return r.obj.AttrString(attrDesc) }

// AutoDesc reports whether the director manages this room's description.
func (r *Room) AutoDesc() bool { return r.obj.AttrBool(attrAutoDesc) }

// SetAutoDesc toggles director management. An in-flight rewrite checks the
// flag again before applying its result.
func (r *Room) SetAutoDesc(on bool) { r.obj.SetAttr(attrAutoDesc, on) }

// DirectorFacts returns the room's persisted director facts.
func (r *Room) DirectorFacts() []string { return directorFacts(r.obj) }

// initRoomAttrs seeds the persistent room attributes on first use.
func initRoomAttrs(obj *world.Object) {
	if obj.AttrString(attrDesc) == "" {
		obj.SetAttr(attrDesc, DefaultRoomDesc)
		obj.SetAttr(attrAutoDesc, true)
		obj.SetAttr(attrDirectorFacts, []any{})
		obj.SetAttr(attrLastGeneratedDesc, DefaultRoomDesc)
	}
	if obj.Attr(attrMemory) == nil {
		obj.SetAttr(attrMemory, []any{})
	}
}

// remember appends to the rolling speech buffer, evicting the oldest entries
// past the configured cap.
func (r *Room) remember(speaker *world.Object, message string) {
	mem, _ := r.obj.Attr(attrMemory).([]any)
	mem = append(mem, map[string]any{"who": speaker.Key(), "msg": message})
	if len(mem) > r.cfg.MemoryMax {
		mem = mem[len(mem)-r.cfg.MemoryMax:]
	}
	r.obj.SetAttr(attrMemory, mem)
}

// MemoryText renders the full memory buffer, mostly for debugging surfaces.
func (r *Room) MemoryText() string {
	return r.computer.RoomMemoryText(1 << 20)
}

// isSceneObject reports whether a moved object should trigger a description
// rewrite: only notable props count.
func isSceneObject(obj *world.Object) bool {
	if obj == nil || world.IsExit(obj) || world.IsCharacter(obj) {
		return false
	}
	return obj.AttrBool(world.AttrNotable)
}

// ObjectArrived is called after an object moves into the room.
func (r *Room) ObjectArrived(obj *world.Object) {
	if r.obj.AttrBool(attrAutoDesc) && isSceneObject(obj) {
		r.ScheduleRewrite()
	}
}

// ObjectLeft is called after an object moves out of the room.
func (r *Room) ObjectLeft(obj *world.Object) {
	if r.obj.AttrBool(attrAutoDesc) && isSceneObject(obj) {
		r.ScheduleRewrite()
	}
}

// ScheduleRewrite coalesces bursts of changes into one director call: a new
// request cancels and replaces any pending debounce timer.
func (r *Room) ScheduleRewrite() {
	if r.pendingRewrite != nil {
		r.pendingRewrite.Cancel()
	}
	r.pendingRewrite = r.eng.After(r.cfg.DescDebounce, r.startRewrite)
}

func (r *Room) startRewrite() {
	r.pendingRewrite = nil
	if r.rewriteInFlight {
		return
	}

	now := r.now()
	if elapsed := now.Sub(r.lastRewrite); elapsed < r.cfg.DescCooldown {
		// Don't drop rewrites; retry after the remaining cooldown. The
		// retry timer is tracked like the debounce timer so a later
		// ScheduleRewrite (or cancellation) replaces it.
		remaining := r.cfg.DescCooldown - elapsed + 50*time.Millisecond
		r.pendingRewrite = r.eng.After(remaining, r.startRewrite)
		return
	}
	r.rewriteInFlight = true
	r.lastRewrite = now

	r.w.Broadcast(r.obj, "The set shimmers, reconsidering itself...")

	snapshot := r.computer.DirectorSnapshot()
	r.eng.Submit(
		func(ctx context.Context) (any, error) {
			res, err := r.computer.GenerateRoomDesc(ctx, snapshot)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
		func(result any) {
			defer func() { r.rewriteInFlight = false }()
			res, ok := result.(director.Result)
			if !ok {
				r.logger.Error("Director returned unexpected result type", "room", r.obj.Dbref())
				return
			}
			r.obj.SetAttr(attrLastGeneratedDesc, res.Desc)
			if !r.obj.AttrBool(attrAutoDesc) {
				return
			}
			if res.Desc == r.obj.AttrString(attrDesc) {
				return
			}
			r.obj.SetAttr(attrDesc, res.Desc)
			if r.notifier != nil {
				r.notifier.RoomDescUpdated(r.obj.Dbref(), res.Desc)
			}
			if res.Facts != nil {
				facts := make([]any, 0, len(res.Facts))
				for _, f := range res.Facts {
					facts = append(facts, f)
				}
				r.obj.SetAttr(attrDirectorFacts, facts)
			}
			r.w.Broadcast(r.obj, "Reality settles into a new arrangement.")
		},
		func(err error) {
			r.logger.Error("Director rewrite failure", "room", r.obj.Dbref(), "error", err)
			r.rewriteInFlight = false
		},
	)
}

// HandleSpeech processes one line of in-room speech. All speech is
// remembered; only speech addressed to the computer is dispatched.
func (r *Room) HandleSpeech(speaker *world.Object, message string) {
	if message == "" {
		return
	}

	r.remember(speaker, message)

	msg := strings.TrimSpace(message)
	if msg == "" {
		return
	}

	norm := roomtext.NormalizeSayMessage(msg)
	if !roomtext.IsComputerAddressed(norm) {
		return
	}
	instruction := roomtext.ExtractComputerInstruction(norm)
	if instruction == "" {
		r.w.Tell(speaker, "Try: say computer, create a brass cat idol")
		return
	}

	r.dispatch(speaker, instruction)
}

// dispatch routes an instruction through the fixed-priority handler table.
func (r *Room) dispatch(speaker *world.Object, instruction string) {
	lowinst := strings.ToLower(strings.TrimSpace(instruction))

	switch lowinst {
	case "facts", "list facts", "show facts":
		r.handleListFacts(speaker)
		return
	// "update room" is matched here as an exact literal, ahead of the edit
	// patterns below that would otherwise claim instructions starting with
	// "update". Only the bare phrase short-circuits; "update room desc to
	// ..." still falls through to the edit handler.
	case "refine", "rewrite", "refresh", "update room":
		r.ScheduleRewrite()
		r.w.Broadcast(r.obj, "The room takes another look at itself...")
		return
	}

	if m := unpinPattern.FindStringSubmatch(strings.TrimSpace(instruction)); m != nil {
		r.handleUnpin(speaker, m[1])
		return
	}
	if m := pinPattern.FindStringSubmatch(strings.TrimSpace(instruction)); m != nil {
		r.handlePin(speaker, strings.TrimSpace(m[1]))
		return
	}
	if m := destroyPattern.FindStringSubmatch(lowinst); m != nil {
		remainder := strings.TrimSpace(strings.TrimSpace(instruction)[len(m[1]):])
		r.handleDestroy(speaker, remainder)
		return
	}
	if editPattern.MatchString(lowinst) {
		r.handleEdit(speaker, instruction)
		return
	}
	if createPattern.MatchString(lowinst) {
		remainder := strings.TrimSpace(createVerbPattern.ReplaceAllString(strings.TrimSpace(instruction), ""))
		r.handleCreate(speaker, remainder)
		return
	}

	r.handleIntent(speaker, instruction)
}

func (r *Room) handleListFacts(speaker *world.Object) {
	var lines []string

	if rf := fact.Get(r.obj); len(rf) > 0 {
		lines = append(lines, "Room facts:")
		lines = append(lines, factLines(rf, roomFactsShown)...)
	}
	for _, obj := range r.obj.Contents() {
		if obj == nil || !obj.AttrBool(world.AttrNotable) {
			continue
		}
		if of := fact.Get(obj); len(of) > 0 {
			lines = append(lines, fmt.Sprintf("%s facts:", obj.Key()))
			lines = append(lines, factLines(of, objFactsShown)...)
		}
	}

	if len(lines) == 0 {
		r.w.Tell(speaker, "No pinned facts yet. Try: say computer, pin This is a seaside lounge.")
		return
	}
	r.w.Tell(speaker, strings.Join(lines, "\n"))
}

func factLines(facts []any, max int) []string {
	if len(facts) > max {
		facts = facts[len(facts)-max:]
	}
	var out []string
	for _, f := range facts {
		m, ok := f.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		text, _ := m["text"].(string)
		out = append(out, fmt.Sprintf("  %s: %s", id, text))
	}
	return out
}

func (r *Room) handleUnpin(speaker *world.Object, factID string) {
	if fact.Remove(r.obj, factID) {
		r.w.Broadcast(r.obj, fmt.Sprintf("The room nods. Unpinned %s.", factID))
		r.ScheduleRewrite()
		return
	}
	r.w.Tell(speaker, fmt.Sprintf("I can't find a room fact with id '%s'. Try: say computer, facts", factID))
}

func (r *Room) handlePin(speaker *world.Object, rest string) {
	factText := rest
	targetText := ""
	if parts := pinTargetSplit.Split(rest, 2); len(parts) == 2 {
		factText = strings.TrimSpace(parts[0])
		targetText = strings.TrimSpace(parts[1])
	}

	if factText == "" {
		r.w.Tell(speaker, "Try: say computer, pin This is a seaside lounge.")
		return
	}

	target := r.obj
	if targetText != "" {
		found := world.FindObjectInRoom(r.obj, targetText, false)
		if found == nil {
			r.w.Tell(speaker, fmt.Sprintf("I couldn't find '%s' to pin that to.", targetText))
			return
		}
		target = found
	}

	f := fact.New(factText, speaker.Key(), fact.ScopePinned, 1.0, nil)
	fact.Add(target, f)
	r.w.Broadcast(r.obj, fmt.Sprintf("The room remembers. Pinned: \"%s\"", factText))
	r.ScheduleRewrite()
}

func (r *Room) handleDestroy(speaker *world.Object, remainder string) {
	remainder = strings.TrimSpace(articlePrefix.ReplaceAllString(remainder, ""))
	if remainder == "" {
		r.w.Tell(speaker, "Tell me what to destroy, e.g. say computer, destroy Thorned Yuletide Sentinel")
		return
	}

	removed := r.w.DeleteBySelector(r.obj, remainder)
	if removed == nil {
		if opts := world.ListNotablesWithDbref(r.obj, notableListMax); opts != "" {
			r.w.Tell(speaker, "In this room I can remove: "+opts)
		}
		r.w.Tell(speaker, fmt.Sprintf("I couldn't find '%s'. Try the exact name, or copy a dbref from the list above (example format: #67).", remainder))
		return
	}

	r.w.Broadcast(r.obj, fmt.Sprintf("The room complies. %s(%s) is removed.", removed.Key, removed.Dbref))
	if r.notifier != nil {
		r.notifier.ObjectDestroyed(r.obj.Dbref(), removed.Dbref, removed.Key)
	}
	r.ScheduleRewrite()
}

// llmCallAllowed applies the shared per-room LLM cooldown used by the edit,
// create and intent paths, recording the call time when permitted.
func (r *Room) llmCallAllowed(speaker *world.Object) bool {
	now := r.now()
	if now.Sub(r.lastLLMCall) < r.cfg.LLMCooldown {
		r.w.Tell(speaker, "The room holds up a paw. Give it a second...")
		return false
	}
	r.lastLLMCall = now
	return true
}

func (r *Room) handleEdit(speaker *world.Object, instruction string) {
	if !r.llmCallAllowed(speaker) {
		return
	}

	target, ambiguous := targeting.ResolveEditTarget(r.obj, instruction)
	if target != nil && !targeting.InstructionMentionsTarget(instruction, target) {
		// The resolver guessed a target the instruction does not even
		// name; force dbref disambiguation.
		target = nil
		ambiguous = nil
	}

	if target == nil {
		opts := world.ListNotablesWithDbref(r.obj, notableListMax)
		if len(ambiguous) > 0 {
			var names []string
			for i, o := range ambiguous {
				if i >= notableListMax {
					break
				}
				names = append(names, fmt.Sprintf("%s(%s)", o.Key(), o.Dbref()))
			}
			r.w.Tell(speaker, "Which one did you mean? Use a dbref, e.g. say computer, change #67 to be blue\nI see: "+strings.Join(names, ", "))
		} else if opts != "" {
			r.w.Tell(speaker, "I couldn't tell what object you meant. Use a dbref like #67.\nI see: "+opts)
		} else {
			r.w.Tell(speaker, "I couldn't tell what object you meant. Try including its name or a dbref like #67.")
		}
		return
	}

	r.w.Broadcast(r.obj, "The room studies the object, considering your request...")

	messages, empty, err := r.computer.PropEditMessages(speaker.Key(), instruction, target.Dbref())
	if err != nil {
		r.logger.Error("Edit payload build failure", "room", r.obj.Dbref(), "error", err)
		r.w.Broadcast(r.obj, "The room hesitates. The edit doesn't take. (Try again.)")
		return
	}
	if empty != nil {
		return
	}

	targetDbref := target.Dbref()
	r.eng.Submit(
		func(ctx context.Context) (any, error) {
			return r.computer.ChatJSON(ctx, messages)
		},
		func(result any) {
			data, ok := result.(map[string]any)
			if !ok {
				r.logger.Error("Editor returned non-object result", "room", r.obj.Dbref())
				r.w.Broadcast(r.obj, "The room hesitates. The edit doesn't take. (Try again.)")
				return
			}
			r.applyEdit(target, targetDbref, data)
		},
		func(err error) {
			r.logger.Error("Edit failure", "room", r.obj.Dbref(), "error", err)
			r.w.Broadcast(r.obj, "The room hesitates. The edit doesn't take. (Try again.)")
		},
	)
}

func (r *Room) applyEdit(target *world.Object, targetDbref string, data map[string]any) {
	// Hard guard: the model must confirm which object it edited.
	respDbref := strings.TrimSpace(stringField(data, "dbref"))
	if respDbref != "" && respDbref != targetDbref {
		r.logger.Error("Editor dbref mismatch", "room", r.obj.Dbref(), "got", respDbref, "expected", targetDbref)
		r.w.Broadcast(r.obj, "The room hesitates. The edit doesn't take. (Try again.)")
		return
	}

	var edited []string

	if newKey := stringField(data, "key"); newKey != "" {
		newKey = strings.TrimSpace(whitespaceRun.ReplaceAllString(newKey, " "))
		newKey = strings.TrimSpace(truncate(newKey, keyMaxLen))
		if hasLetter.MatchString(newKey) && newKey != target.Key() {
			target.SetKey(newKey)
			edited = append(edited, "key")
		}
	}

	if newSd := stringField(data, "shortdesc"); newSd != "" {
		newSd = strings.TrimSpace(whitespaceRun.ReplaceAllString(newSd, " "))
		target.SetAttr(attrShortdesc, truncate(newSd, shortdescMaxLen))
		edited = append(edited, "shortdesc")
	}

	if newDesc := stringField(data, "desc"); newDesc != "" {
		target.SetAttr(attrDesc, newDesc)
		edited = append(edited, "desc")
	}

	r.w.Broadcast(r.obj, fmt.Sprintf("Reality tweaks itself. %s now looks a little different.", target.Key()))
	if r.notifier != nil && len(edited) > 0 {
		r.notifier.ObjectEdited(r.obj.Dbref(), targetDbref, edited)
	}
	r.ScheduleRewrite()
}

func (r *Room) handleCreate(speaker *world.Object, remainder string) {
	if remainder == "" {
		r.w.Tell(speaker, "Try: say computer, create a brass cat idol")
		return
	}
	if !r.llmCallAllowed(speaker) {
		return
	}

	r.w.Broadcast(r.obj, "The room listens. Something begins to take shape...")

	messages, err := r.computer.PropCreateMessages(speaker.Key(), remainder)
	if err != nil {
		r.logger.Error("Create payload build failure", "room", r.obj.Dbref(), "error", err)
		r.w.Broadcast(r.obj, "The room sputters. The manifestation fails. (Try again in a moment.)")
		return
	}

	speakerKey := speaker.Key()
	r.eng.Submit(
		func(ctx context.Context) (any, error) {
			return r.computer.ChatJSON(ctx, messages)
		},
		func(result any) {
			data, ok := result.(map[string]any)
			if !ok {
				r.logger.Error("Prop writer returned non-object result", "room", r.obj.Dbref())
				r.w.Broadcast(r.obj, "The room sputters. The manifestation fails. (Try again in a moment.)")
				return
			}

			key := stringField(data, "key")
			if key == "" {
				key = truncate(titleCaser.String(strings.TrimSpace(remainder)), keyMaxLen)
			}
			shortdesc := stringField(data, "shortdesc")
			if shortdesc == "" {
				shortdesc = "a manifested " + strings.TrimSpace(truncate(remainder, 40))
			}
			desc := stringField(data, "desc")
			if desc == "" {
				desc = stringField(data, "description")
			}
			if desc == "" {
				desc = fmt.Sprintf("A newly manifested %s.", strings.TrimSpace(remainder))
			}

			obj := r.manifestProp(truncate(key, keyMaxLen), truncate(shortdesc, shortdescMaxLen), desc)
			label := obj.AttrString(attrShortdesc)
			if label == "" {
				label = obj.Key()
			}
			r.w.Broadcast(r.obj, fmt.Sprintf("The room hums. %s appears at %s's request.", label, speakerKey))
			if r.notifier != nil {
				r.notifier.ObjectCreated(r.obj.Dbref(), obj.Dbref(), obj.Key())
			}
			r.ScheduleRewrite()
		},
		func(err error) {
			r.logger.Error("Manifestation failure", "room", r.obj.Dbref(), "error", err)
			r.w.Broadcast(r.obj, "The room sputters. The manifestation fails. (Try again in a moment.)")
		},
	)
}

// manifestProp creates a notable prop in this room. The object is created
// off-room so its flags are in place before the move fires arrival hooks.
func (r *Room) manifestProp(key, shortdesc, desc string) *world.Object {
	obj := r.w.Create(key, world.KindProp)
	if shortdesc != "" {
		obj.SetAttr(attrShortdesc, shortdesc)
	}
	if desc != "" {
		obj.SetAttr(attrDesc, desc)
	}
	obj.SetAttr(world.AttrNotable, true)
	if obj.Attr(fact.AttrFacts) == nil {
		obj.SetAttr(fact.AttrFacts, []any{})
	}
	if obj.Attr(affordance.AttrAffordance) == nil {
		affordance.Ensure(obj, affordance.DefaultUnit)
	}
	r.w.Move(obj, r.obj)
	return obj
}

func (r *Room) handleIntent(speaker *world.Object, instruction string) {
	if !r.llmCallAllowed(speaker) {
		return
	}

	r.w.Broadcast(r.obj, "The room tilts its head, interpreting...")

	messages, err := r.computer.IntentMessages(speaker.Key(), instruction)
	if err != nil {
		r.logger.Error("Intent payload build failure", "room", r.obj.Dbref(), "error", err)
		r.w.Tell(speaker, "I couldn't interpret that. Try starting with: create / destroy / pin / facts.")
		return
	}

	r.eng.Submit(
		func(ctx context.Context) (any, error) {
			return r.computer.ChatJSON(ctx, messages)
		},
		func(result any) {
			data, ok := result.(map[string]any)
			if !ok {
				r.logger.Error("Intent router returned non-object result", "room", r.obj.Dbref())
				r.w.Tell(speaker, "I couldn't interpret that. Try starting with: create / destroy / pin / facts.")
				return
			}

			intent := strings.ToLower(stringField(data, "intent"))
			if intent == "" {
				intent = "unknown"
			}
			normalized := stringField(data, "normalized")

			if normalized == "" || intent == "unknown" {
				r.w.Tell(speaker,
					"I'm not sure what you meant. Try one of:\n"+
						"  say computer, create <thing>\n"+
						"  say computer, destroy <thing>\n"+
						"  say computer, pin <fact>\n"+
						"  say computer, facts")
				return
			}

			// Suggest-only: the player must re-issue the command themselves.
			r.w.Tell(speaker,
				"I can't run that as-written, but I think you meant:\n"+
					fmt.Sprintf("  say computer, %s\n", normalized)+
					"(Copy/paste that line.)")
			if r.notifier != nil {
				r.notifier.IntentSuggested(r.obj.Dbref(), intent, normalized)
			}
		},
		func(err error) {
			r.logger.Error("Intent router failure", "room", r.obj.Dbref(), "error", err)
			r.w.Tell(speaker, "I couldn't interpret that. Try starting with: create / destroy / pin / facts.")
		},
	)
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return strings.TrimSpace(s)
}

// truncate caps a string at max characters, never splitting a rune.
func truncate(s string, max int) string {
	if r := []rune(s); len(r) > max {
		return string(r[:max])
	}
	return s
}
