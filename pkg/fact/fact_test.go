package fact

import (
	"regexp"
	"testing"

	"github.com/jwebster45206/room-director/pkg/world"
)

var idPattern = regexp.MustCompile(`^fact_[0-9a-f]{6}$`)

func TestNew(t *testing.T) {
	f := New("  The lamp hums quietly.  ", "Korga", ScopePinned, 1.0, nil)

	id, _ := f["id"].(string)
	if !idPattern.MatchString(id) {
		t.Errorf("id %q does not match fact_[0-9a-f]{6}", id)
	}
	if f["text"] != "The lamp hums quietly." {
		t.Errorf("expected trimmed text, got %q", f["text"])
	}
	if f["scope"] != ScopePinned {
		t.Errorf("expected scope %q, got %v", ScopePinned, f["scope"])
	}
	if f["strength"] != 1.0 {
		t.Errorf("expected strength 1.0, got %v", f["strength"])
	}
	if f["created_by"] != "Korga" {
		t.Errorf("expected created_by Korga, got %v", f["created_by"])
	}
	if tags, ok := f["tags"].([]string); !ok || len(tags) != 0 {
		t.Errorf("expected empty tags slice, got %v", f["tags"])
	}
	if ts, ok := f["created_ts"].(float64); !ok || ts <= 0 {
		t.Errorf("expected positive created_ts, got %v", f["created_ts"])
	}
}

func TestNewGeneratesUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		f := New("text", "", ScopeLocal, 0.6, nil)
		id := f["id"].(string)
		if seen[id] {
			t.Fatalf("duplicate fact id %q", id)
		}
		seen[id] = true
	}
}

func TestAddAndGet(t *testing.T) {
	w := world.New()
	room := w.Create("Lounge", world.KindRoom)

	if got := Get(room); len(got) != 0 {
		t.Fatalf("expected no facts on fresh object, got %d", len(got))
	}

	Add(room, New("first", "", ScopeLocal, 0.6, nil))
	Add(room, New("second", "", ScopeLocal, 0.6, nil))

	facts := Get(room)
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(facts))
	}
	first := facts[0].(map[string]any)
	if first["text"] != "first" {
		t.Errorf("expected insertion order preserved, got %v first", first["text"])
	}
}

func TestAddReplacesMalformedStorage(t *testing.T) {
	w := world.New()
	room := w.Create("Lounge", world.KindRoom)
	room.SetAttr(AttrFacts, "not a list")

	Add(room, New("fresh", "", ScopeLocal, 0.6, nil))

	if got := len(Get(room)); got != 1 {
		t.Errorf("expected 1 fact after reinit, got %d", got)
	}
}

func TestRemove(t *testing.T) {
	w := world.New()
	room := w.Create("Lounge", world.KindRoom)

	f := New("keep me honest", "", ScopeLocal, 0.6, nil)
	Add(room, f)
	id := f["id"].(string)

	// Removing a nonexistent id changes nothing.
	if Remove(room, "fact_ffffff") {
		t.Error("expected false removing nonexistent id")
	}
	if len(Get(room)) != 1 {
		t.Error("storage should be unchanged after failed removal")
	}

	// Removing the real id shrinks storage by one.
	if !Remove(room, id) {
		t.Error("expected true removing existing id")
	}
	if len(Get(room)) != 0 {
		t.Error("expected empty storage after removal")
	}

	// Idempotent-safe: removing again reports false.
	if Remove(room, id) {
		t.Error("expected false removing already-removed id")
	}
}

func TestRemoveNonListStorage(t *testing.T) {
	w := world.New()
	room := w.Create("Lounge", world.KindRoom)
	room.SetAttr(AttrFacts, 42)

	if Remove(room, "fact_abcdef") {
		t.Error("expected false for non-list storage")
	}
	if room.Attr(AttrFacts) != 42 {
		t.Error("non-list storage must not be mutated")
	}
}

func TestTexts(t *testing.T) {
	w := world.New()
	room := w.Create("Lounge", world.KindRoom)
	room.SetAttr(AttrFacts, []any{
		map[string]any{"id": "fact_000001", "text": "  first  "},
		"malformed entry",
		map[string]any{"id": "fact_000002", "text": "   "},
		map[string]any{"id": "fact_000003"},
		map[string]any{"id": "fact_000004", "text": "second"},
	})

	got := Texts(room)
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("expected [first second], got %v", got)
	}
}
