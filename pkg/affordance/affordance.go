// Package affordance maintains the physical-interaction descriptor (weight,
// containment, manipulations) on world objects, lazily filling in defaults.
package affordance

import "github.com/jwebster45206/room-director/pkg/world"

// AttrAffordance is the attribute holding an object's affordance map.
const AttrAffordance = "affordance"

// DefaultUnit is the weight unit used when nothing else is specified.
const DefaultUnit = "lb"

// Default returns a fresh affordance map: one pound, movable,
// non-container, manipulable by pick up / examine.
func Default(unit string) map[string]any {
	return map[string]any{
		"unit":      unit,
		"weight":    1.0,
		"immovable": false,
		"container": map[string]any{
			"is_container":    false,
			"capacity_weight": 0.0,
			"openable":        false,
			"is_open":         true,
		},
		"manipulations": []any{"pick up", "examine"},
	}
}

// Ensure is an idempotent upsert of the object's affordance. Storage that is
// not map-shaped is replaced wholesale with defaults; otherwise only missing
// keys are filled in, one level deep for the nested container map. Existing
// values always win. The resulting map is written back and returned.
func Ensure(obj *world.Object, unit string) map[string]any {
	a, ok := obj.Attr(AttrAffordance).(map[string]any)
	if !ok {
		a = map[string]any{}
	}
	base := Default(unit)

	for k, v := range base {
		if _, present := a[k]; !present {
			a[k] = v
		}
	}

	if container, ok := a["container"].(map[string]any); ok {
		for k, v := range base["container"].(map[string]any) {
			if _, present := container[k]; !present {
				container[k] = v
			}
		}
	} else {
		a["container"] = base["container"]
	}

	obj.SetAttr(AttrAffordance, a)
	return a
}
