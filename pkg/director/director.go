// Package director builds the context and messages for room-description
// regeneration and validates the model's answer. Everything here is pure
// data; the network call is made by the orchestrator.
package director

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/room-director/pkg/chat"
)

// SystemPrompt instructs the model to rewrite the room description grounded
// only in present objects, current facts and recent memory.
const SystemPrompt = `You are the room director for a text MUD.
Rewrite the ROOM BASE DESCRIPTION to match the current contents and recent conversation.

IMPORTANT GROUNDING RULES:
- Objects currently present are authoritative reality.
- Do NOT mention any entity unless it is:
  - present in the objects list, OR
  - explicitly supported by current facts, OR
  - explicitly indicated by recent memory as intentionally present.
- Previous descriptions are advisory only and MUST NOT introduce entities.
- If an entity appeared previously but is not grounded above, REMOVE IT.

Return STRICT JSON ONLY (no markdown, no extra text).
Schema: {"desc": str, "facts": [str]}

Rules:
- desc: 1-2 short paragraphs, present tense, evocative but not purple-prose.
- Do NOT list every object; weave only the most salient into scene dressing.
- Use objects to infer indoor/outdoor/season/mood.
- facts: 3-10 short, stable anchors.
- Facts MUST be grounded in objects or room-wide truths (e.g. mood, setting).
- If objects conflict, you may shift the scene.
- Only preserve intentional oddities if memory clearly indicates intent.
`

// ObjectInfo describes one notable object inside a snapshot.
type ObjectInfo struct {
	Key       string `json:"key"`
	Shortdesc string `json:"shortdesc"`
	Desc      string `json:"desc"`
	Notable   bool   `json:"notable"`
}

// Snapshot is a pure, JSON-safe view of room state at a point in time. It is
// built entirely from primitives so it can cross the async boundary without
// touching live world objects.
type Snapshot struct {
	RoomKey               string       `json:"room_key"`
	PreviousDesc          string       `json:"previous_desc"`
	PreviousGeneratedDesc string       `json:"previous_generated_desc"`
	Facts                 []string     `json:"facts"`
	Objects               []ObjectInfo `json:"objects"`
	Memory                string       `json:"memory"`
}

// BuildSnapshot assembles a snapshot, normalizing nils to empty values.
func BuildSnapshot(roomKey, previousDesc, previousGeneratedDesc string, facts []string, objects []ObjectInfo, memoryText string) Snapshot {
	if facts == nil {
		facts = []string{}
	}
	if objects == nil {
		objects = []ObjectInfo{}
	}
	return Snapshot{
		RoomKey:               roomKey,
		PreviousDesc:          previousDesc,
		PreviousGeneratedDesc: previousGeneratedDesc,
		Facts:                 facts,
		Objects:               objects,
		Memory:                memoryText,
	}
}

// BuildMessages renders a snapshot into the director chat messages. The
// model's own prior output is preferred over the raw stored description when
// both exist.
func BuildMessages(snap Snapshot) ([]chat.Message, error) {
	prev := snap.PreviousGeneratedDesc
	if prev == "" {
		prev = snap.PreviousDesc
	}

	facts := make([]string, 0, len(snap.Facts))
	for _, f := range snap.Facts {
		if t := strings.TrimSpace(f); t != "" {
			facts = append(facts, t)
		}
	}

	objects := snap.Objects
	if objects == nil {
		objects = []ObjectInfo{}
	}

	body := map[string]any{
		"room_key":      snap.RoomKey,
		"previous_desc": prev,
		"facts":         facts,
		"objects":       objects,
		"memory":        snap.Memory,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal director payload: %w", err)
	}

	return []chat.Message{
		chat.System(SystemPrompt),
		chat.User(string(raw)),
	}, nil
}

// Result is the validated director response. Facts is nil when the
// response's facts field was not list-shaped, so callers can tell "no facts
// returned" apart from "facts cleared".
type Result struct {
	Desc  string
	Facts []string
}

// ParseResult validates a raw director response. An empty desc is a hard
// content error; a non-list facts field degrades to nil facts.
func ParseResult(data map[string]any) (Result, error) {
	desc, _ := data["desc"].(string)
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return Result{}, fmt.Errorf("director returned empty desc")
	}

	var facts []string
	if raw, ok := data["facts"].([]any); ok {
		facts = make([]string, 0, len(raw))
		for _, f := range raw {
			s, _ := f.(string)
			if t := strings.TrimSpace(s); t != "" {
				facts = append(facts, t)
			}
		}
	}
	return Result{Desc: desc, Facts: facts}, nil
}
