// Package fact stores small provenance-tagged statements on an entity's
// attribute bag. Facts are JSON-shaped maps rather than structs because the
// bag is schema-tolerant: entries that are not maps are skipped, never
// rejected.
package fact

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/jwebster45206/room-director/pkg/world"
)

// AttrFacts is the attribute holding an entity's fact list.
const AttrFacts = "facts"

// Fact scopes. Scope is an opaque label; no validation is applied.
const (
	ScopeLocal   = "local"
	ScopeRoom    = "room"
	ScopePinned  = "pinned"
	ScopeCarried = "carried"
	ScopeWorn    = "worn"
)

// New builds a fact with a generated id ("fact_" + 6 hex chars), trimmed
// text and a current timestamp.
func New(text, createdBy, scope string, strength float64, tags []string) map[string]any {
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":         "fact_" + randomHex(3),
		"text":       strings.TrimSpace(text),
		"scope":      scope,
		"strength":   strength,
		"tags":       tags,
		"created_by": createdBy,
		"created_ts": float64(time.Now().UnixNano()) / 1e9,
	}
}

// Add appends a fact to the entity's list, reinitializing storage that is
// missing or not list-shaped. No dedup.
func Add(obj *world.Object, f map[string]any) {
	facts, ok := obj.Attr(AttrFacts).([]any)
	if !ok {
		facts = []any{}
	}
	facts = append(facts, f)
	obj.SetAttr(AttrFacts, facts)
}

// Get returns the entity's fact list, or an empty list when storage is
// missing or malformed. Never fails.
func Get(obj *world.Object) []any {
	if facts, ok := obj.Attr(AttrFacts).([]any); ok {
		return facts
	}
	return []any{}
}

// Remove filters out the fact with the given id, keeping only map-shaped
// entries. Returns whether the stored length changed; non-list storage is
// left untouched and reported as false.
func Remove(obj *world.Object, factID string) bool {
	facts, ok := obj.Attr(AttrFacts).([]any)
	if !ok {
		return false
	}
	kept := make([]any, 0, len(facts))
	for _, f := range facts {
		m, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if id, _ := m["id"].(string); id == factID {
			continue
		}
		kept = append(kept, f)
	}
	obj.SetAttr(AttrFacts, kept)
	return len(kept) != len(facts)
}

// Texts returns the trimmed, non-empty text fields of the entity's
// map-shaped facts, silently skipping malformed entries.
func Texts(obj *world.Object) []string {
	var out []string
	for _, f := range Get(obj) {
		m, ok := f.(map[string]any)
		if !ok {
			continue
		}
		t, _ := m["text"].(string)
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a fixed id rather than panicking mid-command.
		return strings.Repeat("0", n*2)
	}
	return hex.EncodeToString(b)
}
