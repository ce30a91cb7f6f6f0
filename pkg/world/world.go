// Package world is the in-memory world model: objects with a closed kind
// tag, schema-tolerant attribute bags, containment and message sinks.
//
// All mutation must happen on the single goroutine that owns the world (the
// engine loop); the package does no locking of its own. Attribute values are
// JSON-shaped (strings, numbers, bools, []any, map[string]any) because world
// state round-trips through storage as JSON.
package world

import "fmt"

// Kind classifies every object at creation. Checked by equality, never by
// type introspection.
type Kind string

const (
	KindRoom      Kind = "room"
	KindProp      Kind = "prop"
	KindExit      Kind = "exit"
	KindCharacter Kind = "character"
)

// Object is a single world entity. Rooms, props, exits and characters are
// all Objects; the Kind tag tells them apart.
type Object struct {
	id       int
	key      string
	kind     Kind
	aliases  []string
	location *Object
	contents []*Object
	attrs    map[string]any
}

func (o *Object) ID() int         { return o.id }
func (o *Object) Key() string     { return o.key }
func (o *Object) Kind() Kind      { return o.kind }
func (o *Object) SetKey(k string) { o.key = k }

// Dbref is the stable textual reference for this object, e.g. "#67".
func (o *Object) Dbref() string {
	return fmt.Sprintf("#%d", o.id)
}

// DisplayName is the builder-facing name, e.g. "Seaside Lounge (#4)".
func (o *Object) DisplayName() string {
	return fmt.Sprintf("%s (%s)", o.key, o.Dbref())
}

func (o *Object) Location() *Object { return o.location }

// Contents returns the contained objects in insertion order. The returned
// slice is a copy; mutating it does not affect containment.
func (o *Object) Contents() []*Object {
	out := make([]*Object, len(o.contents))
	copy(out, o.contents)
	return out
}

func (o *Object) Aliases() []string { return o.aliases }

func (o *Object) AddAlias(aliases ...string) {
	o.aliases = append(o.aliases, aliases...)
}

// Attr returns the raw attribute value, or nil if unset.
func (o *Object) Attr(name string) any {
	return o.attrs[name]
}

func (o *Object) SetAttr(name string, value any) {
	o.attrs[name] = value
}

func (o *Object) DelAttr(name string) {
	delete(o.attrs, name)
}

// AttrString returns the attribute as a string, or "" when unset or not
// string-typed.
func (o *Object) AttrString(name string) string {
	s, _ := o.attrs[name].(string)
	return s
}

// AttrBool applies JSON-ish truthiness to an attribute: bools are themselves,
// non-empty strings and non-zero numbers are true, everything else is false.
func (o *Object) AttrBool(name string) bool {
	switch v := o.attrs[name].(type) {
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

// World owns object identity, containment and deletion, and carries the
// broadcast/tell sinks that deliver in-room messages.
type World struct {
	nextID  int
	objects map[int]*Object

	broadcast func(room *Object, msg string)
	tell      func(target *Object, msg string)
	onMove    func(obj, from, to *Object)
}

func New() *World {
	return &World{
		nextID:  1,
		objects: make(map[int]*Object),
	}
}

// OnBroadcast sets the sink invoked by Broadcast. A nil sink drops messages.
func (w *World) OnBroadcast(fn func(room *Object, msg string)) { w.broadcast = fn }

// OnTell sets the sink invoked by Tell. A nil sink drops messages.
func (w *World) OnTell(fn func(target *Object, msg string)) { w.tell = fn }

// OnMove sets the hook invoked after every Move with the old and new
// locations (either may be nil).
func (w *World) OnMove(fn func(obj, from, to *Object)) { w.onMove = fn }

// Create makes a new object with no location.
func (w *World) Create(key string, kind Kind) *Object {
	obj := &Object{
		id:    w.nextID,
		key:   key,
		kind:  kind,
		attrs: make(map[string]any),
	}
	w.nextID++
	w.objects[obj.id] = obj
	return obj
}

// Get returns the object with the given id, or nil.
func (w *World) Get(id int) *Object {
	return w.objects[id]
}

// FindDbref resolves a "#<digits>" reference anywhere in the world.
func (w *World) FindDbref(dbref string) *Object {
	for _, obj := range w.objects {
		if obj.Dbref() == dbref {
			return obj
		}
	}
	return nil
}

// Move relocates obj to dest (which may be nil to remove it from the world
// map without deleting it), then fires the move hook.
func (w *World) Move(obj, dest *Object) {
	if obj == nil {
		return
	}
	from := obj.location
	if from != nil {
		from.removeContent(obj)
	}
	obj.location = dest
	if dest != nil {
		dest.contents = append(dest.contents, obj)
	}
	if w.onMove != nil {
		w.onMove(obj, from, dest)
	}
}

// Delete removes obj from the world. Contained objects are orphaned to nil
// location first so departure hooks fire for them too.
func (w *World) Delete(obj *Object) {
	if obj == nil {
		return
	}
	for _, c := range obj.Contents() {
		w.Move(c, nil)
	}
	w.Move(obj, nil)
	delete(w.objects, obj.id)
}

// Broadcast delivers msg to everyone in room via the configured sink.
func (w *World) Broadcast(room *Object, msg string) {
	if w.broadcast != nil {
		w.broadcast(room, msg)
	}
}

// Tell delivers msg to a single object (normally a character).
func (w *World) Tell(target *Object, msg string) {
	if w.tell != nil {
		w.tell(target, msg)
	}
}

func (o *Object) removeContent(c *Object) {
	for i, x := range o.contents {
		if x == c {
			o.contents = append(o.contents[:i], o.contents[i+1:]...)
			return
		}
	}
}
