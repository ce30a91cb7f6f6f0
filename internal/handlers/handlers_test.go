package handlers

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jwebster45206/room-director/internal/config"
	"github.com/jwebster45206/room-director/internal/engine"
	"github.com/jwebster45206/room-director/internal/room"
	"github.com/jwebster45206/room-director/internal/services"
	"github.com/jwebster45206/room-director/pkg/world"
)

type testEnv struct {
	game    *room.Game
	eng     *engine.Engine
	w       *world.World
	llm     *services.MockLLM
	logger  *slog.Logger
	roomObj *world.Object
	speaker *world.Object
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))

	cfg := &config.Config{
		LocalBaseURL: "http://127.0.0.1:1234/v1",
		LocalModel:   "test-local",
		MemoryMax:    50,
		LLMCooldown:  0,
		DescDebounce: 5 * time.Millisecond,
		DescCooldown: 0,
		Workers:      2,
	}

	eng := engine.New(logger, cfg.Workers)
	go eng.Run()
	t.Cleanup(eng.Stop)

	env := &testEnv{
		eng:    eng,
		w:      world.New(),
		llm:    services.NewMockLLM(),
		logger: logger,
	}
	env.game = room.NewGame(env.w, eng, cfg, env.llm, logger)

	eng.Call(func() {
		env.roomObj = env.game.CreateRoom("Seaside Lounge")
		env.speaker = env.game.CreateCharacter("Alice", env.roomObj)
	})
	return env
}
