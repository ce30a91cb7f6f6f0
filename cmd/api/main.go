package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/room-director/internal/config"
	"github.com/jwebster45206/room-director/internal/engine"
	"github.com/jwebster45206/room-director/internal/handlers"
	"github.com/jwebster45206/room-director/internal/logger"
	"github.com/jwebster45206/room-director/internal/middleware"
	"github.com/jwebster45206/room-director/internal/room"
	"github.com/jwebster45206/room-director/internal/services"
	"github.com/jwebster45206/room-director/internal/services/events"
	"github.com/jwebster45206/room-director/internal/storage"
	"github.com/jwebster45206/room-director/pkg/world"
)

// eventNotifier bridges engine-loop room events to the Redis broadcaster.
// Publishes run off-loop so a slow Redis never stalls the world.
type eventNotifier struct {
	broadcaster *events.Broadcaster
}

func (n *eventNotifier) RoomDescUpdated(roomDbref, desc string) {
	go n.broadcaster.PublishRoomDescUpdated(context.Background(), roomDbref, desc)
}

func (n *eventNotifier) ObjectCreated(roomDbref, objectDbref, key string) {
	go n.broadcaster.PublishObjectCreated(context.Background(), roomDbref, objectDbref, key)
}

func (n *eventNotifier) ObjectDestroyed(roomDbref, objectDbref, key string) {
	go n.broadcaster.PublishObjectDestroyed(context.Background(), roomDbref, objectDbref, key)
}

func (n *eventNotifier) ObjectEdited(roomDbref, objectDbref string, fields []string) {
	go n.broadcaster.PublishObjectEdited(context.Background(), roomDbref, objectDbref, fields)
}

func (n *eventNotifier) IntentSuggested(roomDbref, intent, command string) {
	go n.broadcaster.PublishIntentSuggested(context.Background(), roomDbref, intent, command)
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Room Director API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"local_model", cfg.LocalModel,
		"world", cfg.WorldName)

	store, err := storage.NewRedisStore(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	eng := engine.New(log, cfg.Workers)
	go eng.Run()

	w, fresh, err := loadWorld(store, cfg, log)
	if err != nil {
		log.Error("Failed to load world", "error", err)
		os.Exit(1)
	}

	llm := services.NewClient(cfg, log)
	game := room.NewGame(w, eng, cfg, llm, log)

	broadcaster := events.NewBroadcaster(store.Client(), log)
	game.SetNotifier(&eventNotifier{broadcaster: broadcaster})

	// In-room text also streams over the room's event channel.
	w.OnBroadcast(func(rm *world.Object, msg string) {
		dbref := rm.Dbref()
		go broadcaster.PublishRoomMessage(context.Background(), dbref, msg)
	})
	w.OnTell(func(target *world.Object, msg string) {
		loc := target.Location()
		if loc == nil {
			return
		}
		dbref := loc.Dbref()
		line := fmt.Sprintf("(to %s) %s", target.Key(), msg)
		go broadcaster.PublishRoomMessage(context.Background(), dbref, line)
	})

	if fresh {
		eng.Call(func() {
			starter := game.CreateRoom("The Commons")
			log.Info("Seeded starter room", "dbref", starter.Dbref())
		})
	}

	// Periodic world snapshots. The snapshot is taken on the engine loop;
	// the write happens here.
	saveDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-saveDone:
				return
			case <-ticker.C:
				saveWorld(eng, store, cfg, w, log)
			}
		}
	}()

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	sayHandler := handlers.NewSayHandler(game, eng, log)
	mux.Handle("/v1/say", sayHandler)

	roomsHandler := handlers.NewRoomsHandler(game, eng, log)
	mux.Handle("/v1/rooms", roomsHandler)
	mux.Handle("/v1/rooms/", roomsHandler)

	charactersHandler := handlers.NewCharactersHandler(game, eng, log)
	mux.Handle("/v1/characters", charactersHandler)

	digHandler := handlers.NewDigHandler(game, eng, log)
	mux.Handle("/v1/dig", digHandler)

	eventsHandler := handlers.NewEventsHandler(store.Client(), log)
	mux.Handle("/v1/events/rooms/", eventsHandler)

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the SSE endpoint holds its connection open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	close(saveDone)
	saveWorld(eng, store, cfg, w, log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	eng.Stop()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}

func loadWorld(store *storage.RedisStore, cfg *config.Config, log *slog.Logger) (*world.World, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	state, err := store.LoadWorld(ctx, cfg.WorldName)
	if err != nil {
		return nil, false, err
	}
	if state == nil {
		log.Info("No saved world found, starting fresh", "world", cfg.WorldName)
		return world.New(), true, nil
	}

	log.Info("Restored world snapshot", "world", cfg.WorldName)
	return world.Restore(state), false, nil
}

func saveWorld(eng *engine.Engine, store *storage.RedisStore, cfg *config.Config, w *world.World, log *slog.Logger) {
	var state *world.State
	eng.Call(func() {
		state = w.Snapshot()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.SaveWorld(ctx, cfg.WorldName, state); err != nil {
		log.Error("Failed to save world snapshot", "world", cfg.WorldName, "error", err)
	}
}
