package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/room-director/internal/config"
	"github.com/jwebster45206/room-director/internal/services"
	"github.com/jwebster45206/room-director/pkg/affordance"
	"github.com/jwebster45206/room-director/pkg/chat"
	"github.com/jwebster45206/room-director/pkg/director"
	"github.com/jwebster45206/room-director/pkg/fact"
	"github.com/jwebster45206/room-director/pkg/payload"
	"github.com/jwebster45206/room-director/pkg/world"
)

// Memory and description budgets per pipeline, in characters.
const (
	notableDescMaxChars = 500
	directorMemoryChars = 3000
	createMemoryChars   = 2000
	intentMemoryChars   = 1500
	editMemoryChars     = 1500
)

// Computer is the room-bound facade over the LLM pipelines. Methods that
// read room state must be called on the engine loop; GenerateRoomDesc and
// ChatJSON operate on plain data and are safe on a worker.
type Computer struct {
	w      *world.World
	room   *world.Object
	cfg    *config.Config
	llm    services.LLM
	logger *slog.Logger
}

func NewComputer(w *world.World, room *world.Object, cfg *config.Config, llm services.LLM, logger *slog.Logger) *Computer {
	return &Computer{
		w:      w,
		room:   room,
		cfg:    cfg,
		llm:    llm,
		logger: logger,
	}
}

// Providers returns the ranked provider list: LOCAL always first, the cloud
// fallback appended only when its API key is configured.
func (c *Computer) Providers() []services.Provider {
	providers := []services.Provider{
		{
			Label:   "LOCAL",
			BaseURL: c.cfg.LocalBaseURL,
			Model:   c.cfg.LocalModel,
		},
	}
	if c.cfg.OpenAIAPIKey != "" {
		providers = append(providers, services.Provider{
			Label:   "OPENAI",
			BaseURL: c.cfg.OpenAIBaseURL,
			Model:   c.cfg.OpenAIModel,
			APIKey:  c.cfg.OpenAIAPIKey,
		})
	}
	return providers
}

// ChatJSON dispatches prebuilt messages through the configured providers.
func (c *Computer) ChatJSON(ctx context.Context, messages []chat.Message) (map[string]any, error) {
	return c.llm.ChatJSON(ctx, c.Providers(), messages)
}

// NotableObjectsPacket snapshots the room's notable props for an LLM
// payload, scaffolding affordance on each as a side effect. Descriptions are
// included only when requested and truncated to maxDescChars.
func (c *Computer) NotableObjectsPacket(includeDesc bool, maxDescChars int) []map[string]any {
	var out []map[string]any
	for _, obj := range c.room.Contents() {
		if obj == nil || world.IsExit(obj) || world.IsCharacter(obj) {
			continue
		}
		if !obj.AttrBool(world.AttrNotable) {
			continue
		}

		affordance.Ensure(obj, affordance.DefaultUnit)

		desc := ""
		if includeDesc {
			desc = truncate(strings.TrimSpace(obj.AttrString(attrDesc)), maxDescChars)
		}

		sd := obj.AttrString(attrShortdesc)
		if sd == "" {
			sd = obj.Key()
		}

		out = append(out, map[string]any{
			"dbref":      obj.Dbref(),
			"key":        obj.Key(),
			"shortdesc":  sd,
			"desc":       desc,
			"facts":      fact.Get(obj),
			"affordance": obj.Attr(affordance.AttrAffordance),
		})
	}
	return out
}

// RoomMemoryText renders the memory buffer as "who: msg" lines, keeping only
// the trailing maxChars characters so the most recent context survives
// truncation.
func (c *Computer) RoomMemoryText(maxChars int) string {
	mem, _ := c.room.Attr(attrMemory).([]any)
	lines := make([]string, 0, len(mem))
	for _, m := range mem {
		entry, ok := m.(map[string]any)
		if !ok {
			continue
		}
		who, _ := entry["who"].(string)
		if who == "" {
			who = "?"
		}
		msg, _ := entry["msg"].(string)
		lines = append(lines, fmt.Sprintf("%s: %s", who, msg))
	}
	text := strings.Join(lines, "\n")
	// Keep the tail on a rune boundary; multi-byte text must not be split.
	if r := []rune(text); len(r) > maxChars {
		text = string(r[len(r)-maxChars:])
	}
	return text
}

// DirectorSnapshot assembles the pure-data context for a description
// rewrite. Must be called on the engine loop.
func (c *Computer) DirectorSnapshot() director.Snapshot {
	var objects []director.ObjectInfo
	for _, p := range c.NotableObjectsPacket(true, notableDescMaxChars) {
		key, _ := p["key"].(string)
		sd, _ := p["shortdesc"].(string)
		desc, _ := p["desc"].(string)
		objects = append(objects, director.ObjectInfo{
			Key:       key,
			Shortdesc: sd,
			Desc:      desc,
			Notable:   true,
		})
	}

	return director.BuildSnapshot(
		c.room.DisplayName(),
		c.room.AttrString(attrDesc),
		c.room.AttrString(attrLastGeneratedDesc),
		directorFacts(c.room),
		objects,
		c.RoomMemoryText(directorMemoryChars),
	)
}

// GenerateRoomDesc runs the director pipeline against a prebuilt snapshot.
// Safe to call from a worker: the snapshot is plain data.
func (c *Computer) GenerateRoomDesc(ctx context.Context, snap director.Snapshot) (director.Result, error) {
	messages, err := director.BuildMessages(snap)
	if err != nil {
		return director.Result{}, err
	}
	data, err := c.ChatJSON(ctx, messages)
	if err != nil {
		return director.Result{}, err
	}
	return director.ParseResult(data)
}

func (c *Computer) anchors() []payload.Anchor {
	var out []payload.Anchor
	for _, p := range c.NotableObjectsPacket(false, 0) {
		key, _ := p["key"].(string)
		sd, _ := p["shortdesc"].(string)
		dbref, _ := p["dbref"].(string)
		out = append(out, payload.Anchor{Key: key, Shortdesc: sd, Dbref: dbref})
	}
	return out
}

func marshalUserPayload(body map[string]any) (string, error) {
	raw, err := json.Marshal(payload.JSONSafe(body))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return string(raw), nil
}

// PropCreateMessages builds the prop-create chat messages from live room
// state. Must be called on the engine loop.
func (c *Computer) PropCreateMessages(speakerKey, instruction string) ([]chat.Message, error) {
	body := payload.PropCreate(
		speakerKey,
		instruction,
		strings.TrimSpace(c.room.AttrString(attrDesc)),
		c.anchors(),
		c.RoomMemoryText(createMemoryChars),
	)
	user, err := marshalUserPayload(body)
	if err != nil {
		return nil, err
	}
	return []chat.Message{
		chat.System(payload.PropCreatePrompt),
		chat.User(user),
	}, nil
}

// IntentMessages builds the intent-router chat messages. Must be called on
// the engine loop.
func (c *Computer) IntentMessages(speakerKey, utterance string) ([]chat.Message, error) {
	body := payload.Intent(
		speakerKey,
		utterance,
		strings.TrimSpace(c.room.AttrString(attrDesc)),
		c.anchors(),
		c.RoomMemoryText(intentMemoryChars),
	)
	user, err := marshalUserPayload(body)
	if err != nil {
		return nil, err
	}
	return []chat.Message{
		chat.System(payload.IntentRouterPrompt),
		chat.User(user),
	}, nil
}

// emptyEditResult is what the edit pipeline yields when the target dbref no
// longer resolves: a deliberate no-op, not an error.
func emptyEditResult() map[string]any {
	return map[string]any{"dbref": "", "key": "", "shortdesc": "", "desc": ""}
}

// PropEditMessages builds the prop-edit chat messages for the object with
// the given dbref. If the dbref no longer matches anything in the room, the
// second return value carries an empty-field result and no messages are
// built. Must be called on the engine loop.
func (c *Computer) PropEditMessages(speakerKey, instruction, targetDbref string) ([]chat.Message, map[string]any, error) {
	var target *world.Object
	for _, obj := range c.room.Contents() {
		if obj != nil && obj.Dbref() == targetDbref {
			target = obj
			break
		}
	}
	if target == nil {
		return nil, emptyEditResult(), nil
	}

	affordance.Ensure(target, affordance.DefaultUnit)

	sd := target.AttrString(attrShortdesc)
	if sd == "" {
		sd = target.Key()
	}
	targetPacket := map[string]any{
		"dbref":      target.Dbref(),
		"key":        target.Key(),
		"shortdesc":  sd,
		"desc":       target.AttrString(attrDesc),
		"facts":      fact.Get(target),
		"affordance": target.Attr(affordance.AttrAffordance),
	}

	roomFacts := append(fact.Texts(c.room), directorFacts(c.room)...)

	body := payload.PropEdit(
		speakerKey,
		instruction,
		strings.TrimSpace(c.room.AttrString(attrDesc)),
		roomFacts,
		targetPacket,
		c.anchors(),
		c.RoomMemoryText(editMemoryChars),
	)
	user, err := marshalUserPayload(body)
	if err != nil {
		return nil, nil, err
	}
	return []chat.Message{
		chat.System(payload.PropEditPrompt),
		chat.User(user),
	}, nil, nil
}

// GeneratePropJSON runs the full prop-create pipeline. Intended for callers
// outside the engine loop split, such as tooling.
func (c *Computer) GeneratePropJSON(ctx context.Context, speakerKey, instruction string) (map[string]any, error) {
	messages, err := c.PropCreateMessages(speakerKey, instruction)
	if err != nil {
		return nil, err
	}
	return c.ChatJSON(ctx, messages)
}

// PredictIntent runs the full intent-prediction pipeline.
func (c *Computer) PredictIntent(ctx context.Context, speakerKey, utterance string) (map[string]any, error) {
	messages, err := c.IntentMessages(speakerKey, utterance)
	if err != nil {
		return nil, err
	}
	return c.ChatJSON(ctx, messages)
}

// GeneratePropEditJSON runs the full prop-edit pipeline, short-circuiting
// with an empty-field result when the target dbref does not resolve.
func (c *Computer) GeneratePropEditJSON(ctx context.Context, speakerKey, instruction, targetDbref string) (map[string]any, error) {
	messages, empty, err := c.PropEditMessages(speakerKey, instruction, targetDbref)
	if err != nil {
		return nil, err
	}
	if empty != nil {
		return empty, nil
	}
	return c.ChatJSON(ctx, messages)
}

// directorFacts returns the room's persisted director facts as trimmed,
// non-empty strings.
func directorFacts(room *world.Object) []string {
	raw, _ := room.Attr(attrDirectorFacts).([]any)
	var out []string
	for _, f := range raw {
		s, _ := f.(string)
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
