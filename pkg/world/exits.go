package world

import "strings"

// AttrDestination holds the destination room id of an exit.
const AttrDestination = "destination"

// exitAliases maps cardinal exit names to their conventional short forms.
var exitAliases = map[string][]string{
	"north": {"n"},
	"south": {"s"},
	"east":  {"e"},
	"west":  {"w"},
	"up":    {"u"},
	"down":  {"d"},
}

// reverseDirections pairs each cardinal direction with its opposite, used to
// name the return exit when digging.
var reverseDirections = map[string]string{
	"north": "south",
	"south": "north",
	"east":  "west",
	"west":  "east",
	"up":    "down",
	"down":  "up",
}

// ReverseDirection returns the opposite cardinal direction, or "" when the
// name is not a cardinal.
func ReverseDirection(name string) string {
	return reverseDirections[name]
}

// CreateExit makes an exit object in room leading to dest, adding direction
// aliases for cardinal names.
func (w *World) CreateExit(room, dest *Object, name string) *Object {
	ex := w.Create(name, KindExit)
	ex.SetAttr(AttrDestination, dest.ID())
	if aliases, ok := exitAliases[name]; ok {
		ex.AddAlias(aliases...)
	}
	w.Move(ex, room)
	return ex
}

// FindExit looks up an exit in room by key or alias, case-insensitively.
func FindExit(room *Object, name string) *Object {
	low := strings.ToLower(name)
	for _, obj := range room.Contents() {
		if !IsExit(obj) {
			continue
		}
		if strings.ToLower(obj.Key()) == low {
			return obj
		}
		for _, a := range obj.Aliases() {
			if strings.ToLower(a) == low {
				return obj
			}
		}
	}
	return nil
}
