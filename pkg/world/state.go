package world

// ObjectState is the serializable form of one object.
type ObjectState struct {
	ID       int            `json:"id"`
	Key      string         `json:"key"`
	Kind     Kind           `json:"kind"`
	Aliases  []string       `json:"aliases,omitempty"`
	Location int            `json:"location,omitempty"` // 0 = no location
	Attrs    map[string]any `json:"attrs,omitempty"`
}

// State is a full, JSON-serializable world snapshot. Transient room
// scheduler state is deliberately absent; it lives outside the world.
type State struct {
	NextID  int           `json:"next_id"`
	Objects []ObjectState `json:"objects"`
}

// Snapshot captures the current world as plain data. Contents order is
// preserved via location references plus the object list order.
func (w *World) Snapshot() *State {
	st := &State{NextID: w.nextID}

	// Walk rooms first, then their contents in containment order so that
	// Restore rebuilds contents slices in the same order.
	seen := make(map[int]bool)
	var emit func(obj *Object)
	emit = func(obj *Object) {
		if obj == nil || seen[obj.id] {
			return
		}
		seen[obj.id] = true
		loc := 0
		if obj.location != nil {
			loc = obj.location.id
		}
		st.Objects = append(st.Objects, ObjectState{
			ID:       obj.id,
			Key:      obj.key,
			Kind:     obj.kind,
			Aliases:  append([]string(nil), obj.aliases...),
			Location: loc,
			Attrs:    copyAttrs(obj.attrs),
		})
		for _, c := range obj.contents {
			emit(c)
		}
	}
	for id := 1; id < w.nextID; id++ {
		emit(w.objects[id])
	}
	return st
}

// copyAttrs deep-copies an attribute map so a snapshot never aliases live
// world state. Attribute values are JSON-shaped: scalars, string slices,
// []any, and nested map[string]any.
func copyAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = copyAttrValue(v)
	}
	return out
}

func copyAttrValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyAttrs(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = copyAttrValue(e)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Restore rebuilds a world from a snapshot. Sinks and hooks are not part of
// the snapshot and must be re-registered by the caller.
func Restore(st *State) *World {
	w := New()
	if st == nil {
		return w
	}
	if st.NextID > 1 {
		w.nextID = st.NextID
	}
	for _, os := range st.Objects {
		obj := &Object{
			id:      os.ID,
			key:     os.Key,
			kind:    os.Kind,
			aliases: append([]string(nil), os.Aliases...),
			attrs:   copyAttrs(os.Attrs),
		}
		if obj.attrs == nil {
			obj.attrs = make(map[string]any)
		}
		w.objects[obj.id] = obj
		if obj.id >= w.nextID {
			w.nextID = obj.id + 1
		}
	}
	// Second pass: containment, in snapshot order.
	for _, os := range st.Objects {
		if os.Location == 0 {
			continue
		}
		obj := w.objects[os.ID]
		loc := w.objects[os.Location]
		if obj == nil || loc == nil {
			continue
		}
		obj.location = loc
		loc.contents = append(loc.contents, obj)
	}
	return w
}
