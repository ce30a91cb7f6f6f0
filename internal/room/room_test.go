package room

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/room-director/internal/config"
	"github.com/jwebster45206/room-director/internal/engine"
	"github.com/jwebster45206/room-director/internal/services"
	"github.com/jwebster45206/room-director/pkg/affordance"
	"github.com/jwebster45206/room-director/pkg/chat"
	"github.com/jwebster45206/room-director/pkg/fact"
	"github.com/jwebster45206/room-director/pkg/world"
)

type fixture struct {
	g       *Game
	eng     *engine.Engine
	w       *world.World
	llm     *services.MockLLM
	roomObj *world.Object
	ctrl    *Room
	speaker *world.Object

	mu         sync.Mutex
	broadcasts []string
	tells      []string
}

func testConfig() *config.Config {
	return &config.Config{
		LocalBaseURL: "http://127.0.0.1:1234/v1",
		LocalModel:   "test-local",
		MemoryMax:    50,
		LLMCooldown:  0,
		DescDebounce: 5 * time.Millisecond,
		DescCooldown: 0,
		Workers:      2,
	}
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	eng := engine.New(logger, cfg.Workers)
	go eng.Run()
	t.Cleanup(eng.Stop)

	f := &fixture{
		eng: eng,
		w:   world.New(),
		llm: services.NewMockLLM(),
	}
	f.w.OnBroadcast(func(room *world.Object, msg string) {
		f.mu.Lock()
		f.broadcasts = append(f.broadcasts, msg)
		f.mu.Unlock()
	})
	f.w.OnTell(func(target *world.Object, msg string) {
		f.mu.Lock()
		f.tells = append(f.tells, msg)
		f.mu.Unlock()
	})

	f.g = NewGame(f.w, eng, cfg, f.llm, logger)
	eng.Call(func() {
		f.roomObj = f.g.CreateRoom("Seaside Lounge")
		f.ctrl = f.g.Controller(f.roomObj)
		f.speaker = f.g.CreateCharacter("Alice", f.roomObj)
	})
	return f
}

func (f *fixture) say(t *testing.T, msg string) {
	t.Helper()
	f.eng.Call(func() {
		if err := f.g.Say(f.speaker, msg); err != nil {
			t.Errorf("say failed: %v", err)
		}
	})
}

// addProp creates a notable prop in the room, on the loop.
func (f *fixture) addProp(key, shortdesc string) *world.Object {
	var obj *world.Object
	f.eng.Call(func() {
		obj = f.w.Create(key, world.KindProp)
		obj.SetAttr(world.AttrNotable, true)
		if shortdesc != "" {
			obj.SetAttr(attrShortdesc, shortdesc)
		}
		f.w.Move(obj, f.roomObj)
	})
	return obj
}

func (f *fixture) waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var ok bool
		f.eng.Call(func() { ok = cond() })
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (f *fixture) sawBroadcast(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.broadcasts {
		if strings.Contains(b, substr) {
			return true
		}
	}
	return false
}

func (f *fixture) sawTell(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.tells {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestTruncateCountsRunesNotBytes(t *testing.T) {
	assert.Equal(t, "café", truncate("café crème", 4))
	assert.Equal(t, "short", truncate("short", 80))
	for max := 0; max < 12; max++ {
		got := truncate("déjà-vu déjà", max)
		assert.True(t, utf8.ValidString(got), "max %d split a rune: %q", max, got)
	}
}

func TestSpeechIsRemembered(t *testing.T) {
	f := newFixture(t, nil)

	f.say(t, "hello there")
	f.say(t, "nice weather")

	var mem []any
	f.eng.Call(func() { mem, _ = f.roomObj.Attr(attrMemory).([]any) })
	require.Len(t, mem, 2)
	first := mem[0].(map[string]any)
	assert.Equal(t, "Alice", first["who"])
	assert.Equal(t, "hello there", first["msg"])
	assert.True(t, f.sawBroadcast(`Alice says, "hello there"`))
}

func TestMemoryRollsOver(t *testing.T) {
	cfg := testConfig()
	cfg.MemoryMax = 3
	f := newFixture(t, cfg)

	for _, msg := range []string{"one", "two", "three", "four", "five"} {
		f.say(t, msg)
	}

	var mem []any
	f.eng.Call(func() { mem, _ = f.roomObj.Attr(attrMemory).([]any) })
	require.Len(t, mem, 3)
	assert.Equal(t, "three", mem[0].(map[string]any)["msg"])
	assert.Equal(t, "five", mem[2].(map[string]any)["msg"])
}

func TestNonAddressedSpeechDoesNotDispatch(t *testing.T) {
	f := newFixture(t, nil)

	f.say(t, "the computer is over there")

	assert.Empty(t, f.llm.Calls())
	assert.False(t, f.sawTell("Try:"))
}

func TestPinCreatesPinnedFactAndSchedulesRewrite(t *testing.T) {
	f := newFixture(t, nil)
	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{"desc": "Waves hiss against the deck.", "facts": []any{"seaside"}}, nil
	}

	f.say(t, `computer, pin This is a seaside lounge`)

	var facts []any
	f.eng.Call(func() { facts = fact.Get(f.roomObj) })
	require.Len(t, facts, 1)
	m := facts[0].(map[string]any)
	assert.Equal(t, "This is a seaside lounge", m["text"])
	assert.Equal(t, fact.ScopePinned, m["scope"])
	assert.Equal(t, 1.0, m["strength"])
	assert.Equal(t, "Alice", m["created_by"])
	assert.True(t, f.sawBroadcast("The room remembers."))

	// The debounced rewrite fires and applies the director result.
	f.waitFor(t, "rewrite to land", func() bool {
		return f.roomObj.AttrString(attrDesc) == "Waves hiss against the deck."
	})
	f.eng.Call(func() {
		assert.Equal(t, "Waves hiss against the deck.", f.roomObj.AttrString(attrLastGeneratedDesc))
		assert.Equal(t, []any{"seaside"}, f.roomObj.Attr(attrDirectorFacts))
	})
	assert.True(t, f.sawBroadcast("Reality settles into a new arrangement."))
}

func TestPinToTarget(t *testing.T) {
	f := newFixture(t, nil)
	sofa := f.addProp("velvet sofa", "a sea-blue velvet sofa")

	f.say(t, "computer, pin smells faintly of salt to velvet sofa")

	var facts []any
	f.eng.Call(func() { facts = fact.Get(sofa) })
	require.Len(t, facts, 1)
	assert.Equal(t, "smells faintly of salt", facts[0].(map[string]any)["text"])
}

func TestPinToMissingTarget(t *testing.T) {
	f := newFixture(t, nil)

	f.say(t, "computer, pin something to the kraken")

	assert.True(t, f.sawTell("I couldn't find 'the kraken' to pin that to."))
	var facts []any
	f.eng.Call(func() { facts = fact.Get(f.roomObj) })
	assert.Empty(t, facts)
}

func TestUnpin(t *testing.T) {
	f := newFixture(t, nil)

	var id string
	f.eng.Call(func() {
		fc := fact.New("seaside lounge", "Alice", fact.ScopePinned, 1.0, nil)
		id = fc["id"].(string)
		fact.Add(f.roomObj, fc)
	})

	f.say(t, "computer, unpin "+id)
	assert.True(t, f.sawBroadcast("The room nods. Unpinned "+id+"."))

	f.say(t, "computer, unpin "+id)
	assert.True(t, f.sawTell("I can't find a room fact with id '"+id+"'"))
}

func TestListFactsEmpty(t *testing.T) {
	f := newFixture(t, nil)

	f.say(t, "computer, facts")

	assert.True(t, f.sawTell("No pinned facts yet."))
}

func TestListFactsShowsRoomAndObjectFacts(t *testing.T) {
	f := newFixture(t, nil)
	lamp := f.addProp("brass lamp", "a brass lamp")

	f.eng.Call(func() {
		fact.Add(f.roomObj, fact.New("room fact", "Alice", fact.ScopePinned, 1.0, nil))
		fact.Add(lamp, fact.New("lamp fact", "Alice", fact.ScopeLocal, 0.6, nil))
	})

	f.say(t, "computer, list facts")

	assert.True(t, f.sawTell("Room facts:"))
	assert.True(t, f.sawTell("brass lamp facts:"))
	assert.True(t, f.sawTell("room fact"))
	assert.True(t, f.sawTell("lamp fact"))
}

func TestDestroyRemovesObject(t *testing.T) {
	f := newFixture(t, nil)
	lamp := f.addProp("Brass Lamp", "a brass lamp")
	dbref := lamp.Dbref()

	f.say(t, "computer, destroy the Brass Lamp")

	assert.True(t, f.sawBroadcast("The room complies. Brass Lamp("+dbref+") is removed."))
	f.eng.Call(func() {
		assert.Nil(t, f.w.FindDbref(dbref))
	})
}

func TestDestroyAmbiguousLeavesWorldUntouched(t *testing.T) {
	f := newFixture(t, nil)
	f.addProp("brass lamp one", "a brass lamp")
	f.addProp("brass lamp two", "a brass lamp")

	f.say(t, "computer, destroy Brass Lamp")

	f.eng.Call(func() {
		assert.Len(t, world.NotableProps(f.roomObj), 2)
	})
	assert.True(t, f.sawTell("In this room I can remove:"))
	assert.True(t, f.sawTell("I couldn't find 'Brass Lamp'."))
	assert.False(t, f.sawBroadcast("The room complies."))
}

func TestEditAppliesValidatedFields(t *testing.T) {
	f := newFixture(t, nil)
	sofa := f.addProp("velvet sofa", "a sea-blue velvet sofa")

	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{
			"dbref":     sofa.Dbref(),
			"key":       "crimson  velvet   sofa",
			"shortdesc": "a crimson velvet sofa",
			"desc":      "Deep crimson velvet, worn soft at the arms.",
		}, nil
	}

	f.say(t, "computer, recolor the velvet sofa to crimson")

	assert.True(t, f.sawBroadcast("The room studies the object"))
	f.waitFor(t, "edit to apply", func() bool {
		return sofa.AttrString(attrShortdesc) == "a crimson velvet sofa"
	})
	f.eng.Call(func() {
		assert.Equal(t, "crimson velvet sofa", sofa.Key())
		assert.Equal(t, "Deep crimson velvet, worn soft at the arms.", sofa.AttrString(attrDesc))
	})
	assert.True(t, f.sawBroadcast("Reality tweaks itself."))
}

func TestEditDbrefMismatchIsHardFailure(t *testing.T) {
	f := newFixture(t, nil)
	sofa := f.addProp("velvet sofa", "a sea-blue velvet sofa")

	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{
			"dbref":     "#999",
			"shortdesc": "something else entirely",
		}, nil
	}

	f.say(t, "computer, recolor the velvet sofa to crimson")

	f.waitFor(t, "failure broadcast", func() bool {
		return f.sawBroadcast("The room hesitates.")
	})
	f.eng.Call(func() {
		assert.Equal(t, "a sea-blue velvet sofa", sofa.AttrString(attrShortdesc))
	})
}

func TestEditUnresolvedTargetOffersHints(t *testing.T) {
	f := newFixture(t, nil)
	lamp := f.addProp("brass lamp", "a brass lamp")

	f.say(t, "computer, change it to blue")

	assert.Empty(t, f.llm.Calls())
	assert.True(t, f.sawTell("I couldn't tell what object you meant."))
	assert.True(t, f.sawTell(lamp.Dbref()))
}

func TestEditFailureBroadcastsRetryInvitation(t *testing.T) {
	f := newFixture(t, nil)
	f.addProp("velvet sofa", "a sea-blue velvet sofa")

	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return nil, errors.New("all providers failed")
	}

	f.say(t, "computer, recolor the velvet sofa to crimson")

	f.waitFor(t, "failure broadcast", func() bool {
		return f.sawBroadcast("The room hesitates. The edit doesn't take.")
	})
}

func TestCreateManifestsProp(t *testing.T) {
	f := newFixture(t, nil)

	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{
			"key":       "Brass Cat Idol",
			"shortdesc": "a brass cat idol",
			"desc":      "A small brass idol shaped like a seated cat.",
		}, nil
	}

	f.say(t, "computer, create a brass cat idol")

	assert.True(t, f.sawBroadcast("The room listens."))
	f.waitFor(t, "prop to appear", func() bool {
		return world.FindObjectInRoom(f.roomObj, "Brass Cat Idol", false) != nil
	})
	f.eng.Call(func() {
		obj := world.FindObjectInRoom(f.roomObj, "Brass Cat Idol", false)
		require.NotNil(t, obj)
		assert.True(t, obj.AttrBool(world.AttrNotable))
		assert.Equal(t, "a brass cat idol", obj.AttrString(attrShortdesc))
		_, ok := obj.Attr(affordance.AttrAffordance).(map[string]any)
		assert.True(t, ok, "affordance scaffolded")
	})
	assert.True(t, f.sawBroadcast("a brass cat idol appears at Alice's request."))
}

func TestCreateFallbacksFromEmptyResponse(t *testing.T) {
	f := newFixture(t, nil)

	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{}, nil
	}

	f.say(t, "computer, create a brass cat idol")

	f.waitFor(t, "prop to appear", func() bool {
		return len(world.NotableProps(f.roomObj)) == 1
	})
	f.eng.Call(func() {
		obj := world.NotableProps(f.roomObj)[0]
		assert.Equal(t, "A Brass Cat Idol", obj.Key())
		assert.Equal(t, "a manifested a brass cat idol", obj.AttrString(attrShortdesc))
		assert.Contains(t, obj.AttrString(attrDesc), "newly manifested")
	})
}

func TestCreateWithoutRemainderShowsUsage(t *testing.T) {
	f := newFixture(t, nil)

	f.say(t, "computer, create")

	assert.Empty(t, f.llm.Calls())
	assert.True(t, f.sawTell("Try: say computer, create a brass cat idol"))
}

func TestLLMCooldownGatesSecondCall(t *testing.T) {
	cfg := testConfig()
	cfg.LLMCooldown = time.Hour
	f := newFixture(t, cfg)

	f.say(t, "computer, create a brass cat idol")
	f.say(t, "computer, create a second idol")

	assert.True(t, f.sawTell("The room holds up a paw."))
	f.waitFor(t, "single LLM call", func() bool {
		return len(f.llm.Calls()) == 1
	})
}

func TestIntentSuggestionIsNeverAutoExecuted(t *testing.T) {
	f := newFixture(t, nil)

	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{
			"intent":     "create",
			"normalized": "create a brass lamp",
			"question":   "Did you want to create a brass lamp?",
		}, nil
	}

	f.say(t, "computer, I wish there were some light in here")

	f.waitFor(t, "suggestion", func() bool {
		return f.sawTell("say computer, create a brass lamp")
	})
	f.eng.Call(func() {
		assert.Empty(t, world.NotableProps(f.roomObj), "suggestion must not be executed")
	})
}

func TestIntentUnknownOffersMenu(t *testing.T) {
	f := newFixture(t, nil)

	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{"intent": "unknown", "normalized": ""}, nil
	}

	f.say(t, "computer, flibbertigibbet")

	f.waitFor(t, "menu", func() bool {
		return f.sawTell("I'm not sure what you meant.")
	})
}

func TestRefineSchedulesRewrite(t *testing.T) {
	f := newFixture(t, nil)
	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{"desc": "Freshly reconsidered.", "facts": []any{}}, nil
	}

	f.say(t, "computer, refine")

	assert.True(t, f.sawBroadcast("The room takes another look at itself..."))
	f.waitFor(t, "rewrite to land", func() bool {
		return f.roomObj.AttrString(attrDesc) == "Freshly reconsidered."
	})
}

func TestUpdateRoomLiteralTriggersRefineNotEdit(t *testing.T) {
	f := newFixture(t, nil)
	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{"desc": "Reconsidered.", "facts": []any{}}, nil
	}

	// The bare literal short-circuits to refine despite starting with
	// an edit verb.
	f.say(t, "computer, update room")

	assert.True(t, f.sawBroadcast("The room takes another look at itself..."))
}

func TestRewriteSkippedWhenAutoDescDisabled(t *testing.T) {
	f := newFixture(t, nil)
	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{"desc": "Should not apply.", "facts": []any{}}, nil
	}

	f.eng.Call(func() {
		f.roomObj.SetAttr(attrAutoDesc, false)
		f.ctrl.ScheduleRewrite()
	})

	// last_generated_desc is always recorded; desc is not touched.
	f.waitFor(t, "result recorded", func() bool {
		return f.roomObj.AttrString(attrLastGeneratedDesc) == "Should not apply."
	})
	f.eng.Call(func() {
		assert.Equal(t, DefaultRoomDesc, f.roomObj.AttrString(attrDesc))
	})
}

func TestCooldownRetryTimerIsTracked(t *testing.T) {
	cfg := testConfig()
	cfg.DescCooldown = time.Hour
	f := newFixture(t, cfg)
	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{"desc": "First pass.", "facts": []any{}}, nil
	}

	f.say(t, "computer, refine")
	f.waitFor(t, "first rewrite to land", func() bool {
		return f.roomObj.AttrString(attrDesc) == "First pass."
	})

	// The second request lands inside the cooldown, so it gets rescheduled.
	// That retry timer must be tracked so a later schedule replaces it.
	f.say(t, "computer, refine")
	f.waitFor(t, "retry timer to be tracked", func() bool {
		return f.ctrl.pendingRewrite != nil
	})

	f.eng.Call(func() {
		retry := f.ctrl.pendingRewrite
		f.ctrl.ScheduleRewrite()
		assert.NotSame(t, retry, f.ctrl.pendingRewrite)
	})
}

func TestNotablePropArrivalSchedulesRewrite(t *testing.T) {
	f := newFixture(t, nil)
	f.llm.ChatJSONFunc = func(ctx context.Context, providers []services.Provider, messages []chat.Message) (map[string]any, error) {
		return map[string]any{"desc": "Now featuring a sofa.", "facts": []any{}}, nil
	}

	f.addProp("velvet sofa", "a sea-blue velvet sofa")

	f.waitFor(t, "rewrite to land", func() bool {
		return f.roomObj.AttrString(attrDesc) == "Now featuring a sofa."
	})
}

func TestNonNotableArrivalDoesNotRewrite(t *testing.T) {
	f := newFixture(t, nil)

	f.eng.Call(func() {
		pebble := f.w.Create("pebble", world.KindProp)
		f.w.Move(pebble, f.roomObj)
	})

	f.eng.Call(func() {
		assert.Nil(t, f.ctrl.pendingRewrite)
	})
}

func TestDigCreatesLinkedRooms(t *testing.T) {
	f := newFixture(t, nil)

	var msg string
	var err error
	f.eng.Call(func() {
		msg, err = f.g.Dig(f.roomObj, "north", "Kitchen")
	})
	require.NoError(t, err)
	assert.Equal(t, "Created room 'Kitchen' and linked 'north' (back: 'south').", msg)

	f.eng.Call(func() {
		ex := world.FindExit(f.roomObj, "n")
		require.NotNil(t, ex, "cardinal alias registered")
		kitchen := f.w.Get(destinationID(ex))
		require.NotNil(t, kitchen)
		assert.Equal(t, "Kitchen", kitchen.Key())

		back := world.FindExit(kitchen, "south")
		require.NotNil(t, back)
		assert.Equal(t, f.roomObj.ID(), destinationID(back))
	})
}

func TestDigNonCardinalUsesRoomKeyWord(t *testing.T) {
	f := newFixture(t, nil)

	var msg string
	var err error
	f.eng.Call(func() {
		msg, err = f.g.Dig(f.roomObj, "Library", "Dusty Library")
	})
	require.NoError(t, err)
	// Back link named after the last word of the origin room's key.
	assert.Contains(t, msg, "(back: 'Lounge')")
}

func TestDigRemoveModeDeletesBothLinks(t *testing.T) {
	f := newFixture(t, nil)

	var err error
	f.eng.Call(func() { _, err = f.g.Dig(f.roomObj, "north", "Kitchen") })
	require.NoError(t, err)

	var msg string
	f.eng.Call(func() { msg, err = f.g.Dig(f.roomObj, "north", "") })
	require.NoError(t, err)
	assert.Equal(t, "Removed exit 'north' and return link 'south'.", msg)

	f.eng.Call(func() {
		assert.Nil(t, world.FindExit(f.roomObj, "north"))
	})
}
