package world

import (
	"fmt"
	"strings"
)

// AttrNotable flags a prop as significant enough to influence scene
// description and be targetable by name.
const AttrNotable = "notable"

func IsExit(obj *Object) bool {
	return obj != nil && obj.kind == KindExit
}

func IsCharacter(obj *Object) bool {
	return obj != nil && obj.kind == KindCharacter
}

// IsProp reports whether obj is a room-contained entity that is neither an
// exit nor a character.
func IsProp(obj *Object) bool {
	return obj != nil && !IsExit(obj) && !IsCharacter(obj)
}

// NotableProps returns the notable props in room, in contents order. Flags
// are re-evaluated on every call; this is a live view, not a snapshot.
func NotableProps(room *Object) []*Object {
	var out []*Object
	for _, obj := range room.Contents() {
		if obj == nil || !IsProp(obj) {
			continue
		}
		if obj.AttrBool(AttrNotable) {
			out = append(out, obj)
		}
	}
	return out
}

// ListNotablesWithDbref renders up to limit notable props as
// "Key(#ref), Key(#ref), ...".
func ListNotablesWithDbref(room *Object, limit int) string {
	var out []string
	for _, o := range NotableProps(room) {
		out = append(out, fmt.Sprintf("%s(%s)", o.Key(), o.Dbref()))
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return strings.Join(out, ", ")
}

func isDbref(s string) bool {
	if len(s) < 2 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FindObjectInRoom resolves target text against room contents:
//  1. an exact dbref ("#67") matches any content, prop or not;
//  2. an exact key or shortdesc match among props wins on first hit;
//  3. otherwise a substring match among props wins only if unique.
//
// Ambiguity and no-match both yield nil.
func FindObjectInRoom(room *Object, targetText string, notableOnly bool) *Object {
	t := strings.TrimSpace(targetText)
	if t == "" {
		return nil
	}

	if isDbref(t) {
		for _, obj := range room.Contents() {
			if obj != nil && obj.Dbref() == t {
				return obj
			}
		}
		return nil
	}

	needle := strings.ToLower(t)
	var candidates []*Object
	for _, obj := range room.Contents() {
		if obj == nil || !IsProp(obj) {
			continue
		}
		if notableOnly && !obj.AttrBool(AttrNotable) {
			continue
		}

		key := strings.ToLower(obj.Key())
		sd := strings.ToLower(obj.AttrString("shortdesc"))

		if needle == key || needle == sd {
			return obj
		}
		if strings.Contains(key, needle) || (sd != "" && strings.Contains(sd, needle)) {
			candidates = append(candidates, obj)
		}
	}

	if len(candidates) == 1 {
		return candidates[0]
	}
	return nil
}

// Removed identifies an object deleted by DeleteBySelector, captured before
// deletion.
type Removed struct {
	Key   string `json:"key"`
	Dbref string `json:"dbref"`
}

// DeleteBySelector deletes a single object resolved by dbref, exact key or
// shortdesc match, or unique substring match. The dbref tier matches any
// content; the text tiers are restricted to props. Returns nil on no match
// or ambiguity; deletion is immediate and irreversible.
func (w *World) DeleteBySelector(room *Object, selector string) *Removed {
	t := strings.TrimSpace(selector)
	if t == "" {
		return nil
	}

	if isDbref(t) {
		for _, obj := range room.Contents() {
			if obj != nil && obj.Dbref() == t {
				removed := &Removed{Key: obj.Key(), Dbref: obj.Dbref()}
				w.Delete(obj)
				return removed
			}
		}
		return nil
	}

	needle := strings.ToLower(t)

	// exact match first
	for _, obj := range room.Contents() {
		if obj == nil || !IsProp(obj) {
			continue
		}
		key := strings.ToLower(obj.Key())
		sd := strings.ToLower(obj.AttrString("shortdesc"))
		if needle == key || needle == sd {
			removed := &Removed{Key: obj.Key(), Dbref: obj.Dbref()}
			w.Delete(obj)
			return removed
		}
	}

	// unique substring
	var candidates []*Object
	for _, obj := range room.Contents() {
		if obj == nil || !IsProp(obj) {
			continue
		}
		key := strings.ToLower(obj.Key())
		sd := strings.ToLower(obj.AttrString("shortdesc"))
		if strings.Contains(key, needle) || (sd != "" && strings.Contains(sd, needle)) {
			candidates = append(candidates, obj)
		}
	}

	if len(candidates) == 1 {
		obj := candidates[0]
		removed := &Removed{Key: obj.Key(), Dbref: obj.Dbref()}
		w.Delete(obj)
		return removed
	}
	return nil
}
