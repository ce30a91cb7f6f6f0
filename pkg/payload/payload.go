// Package payload assembles JSON-safe request payloads for the computer's
// LLM pipelines. Builders are pure; JSONSafe guarantees serializability no
// matter what the attribute bags contain.
package payload

import (
	"fmt"
	"reflect"
	"strings"
)

// JSONSafe recursively coerces a value into something encoding/json can
// always serialize: byte slices become strings (undecodable bytes replaced),
// mappings become string-keyed maps, non-string sequences become lists, and
// anything unrecognized falls back to its string representation.
func JSONSafe(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case bool:
		return x
	case int:
		return x
	case int32:
		return x
	case int64:
		return x
	case float32:
		return x
	case float64:
		return x
	case []byte:
		return strings.ToValidUTF8(string(x), "�")
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = JSONSafe(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, JSONSafe(rv.Index(i).Interface()))
		}
		return out
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return JSONSafe(rv.Elem().Interface())
	default:
		return fmt.Sprint(v)
	}
}

// Anchor is the fixed field subset of a notable object included in request
// payloads. Dbref is included only where the pipeline needs it.
type Anchor struct {
	Key       string
	Shortdesc string
	Dbref     string
}

func anchorMaps(anchors []Anchor, withDbref bool) []any {
	out := make([]any, 0, len(anchors))
	for _, a := range anchors {
		m := map[string]any{
			"key":       a.Key,
			"shortdesc": a.Shortdesc,
		}
		if withDbref {
			m["dbref"] = a.Dbref
		}
		out = append(out, m)
	}
	return out
}

// PropCreate builds the request payload for the prop-create pipeline.
func PropCreate(player, instruction, roomDesc string, anchors []Anchor, recentMemory string) map[string]any {
	return map[string]any{
		"player":          player,
		"instruction":     instruction,
		"room_desc":       roomDesc,
		"notable_anchors": anchorMaps(anchors, false),
		"recent_memory":   recentMemory,
	}
}

// Intent builds the request payload for intent prediction.
func Intent(player, utterance, roomDesc string, anchors []Anchor, recentMemory string) map[string]any {
	return map[string]any{
		"player":          player,
		"utterance":       utterance,
		"room_desc":       roomDesc,
		"notable_anchors": anchorMaps(anchors, true),
		"recent_memory":   recentMemory,
	}
}

// PropEdit builds the request payload for the prop-edit pipeline. The target
// packet carries the object's full snapshot including facts and affordance.
func PropEdit(player, instruction, roomDesc string, roomFacts []string, target map[string]any, anchors []Anchor, recentMemory string) map[string]any {
	if roomFacts == nil {
		roomFacts = []string{}
	}
	return map[string]any{
		"player":          player,
		"instruction":     instruction,
		"room_desc":       roomDesc,
		"room_facts":      roomFacts,
		"target":          target,
		"notable_anchors": anchorMaps(anchors, true),
		"recent_memory":   recentMemory,
	}
}
