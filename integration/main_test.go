//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/room-director/internal/handlers"
)

// Live-API smoke suite. Requires a running server and redis:
//
//	go test -tags integration ./integration/
//
// API_BASE_URL overrides the default http://localhost:8080.

var apiBaseURL string

func TestMain(m *testing.M) {
	apiBaseURL = os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		apiBaseURL = "http://localhost:8080"
	}

	fmt.Printf("Running Room Director Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL)

	os.Exit(m.Run())
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func postJSON(t *testing.T, client *http.Client, path string, body any, out any, wantStatus int) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := client.Post(apiBaseURL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "POST %s: %s", path, string(raw))

	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
}

func TestHealth(t *testing.T) {
	resp, err := httpClient().Get(apiBaseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoomLifecycle(t *testing.T) {
	client := httpClient()

	var room handlers.RoomView
	postJSON(t, client, "/v1/rooms", handlers.CreateRoomRequest{Key: "Integration Lounge"}, &room, http.StatusCreated)
	require.NotEmpty(t, room.Dbref)
	assert.Equal(t, "Integration Lounge", room.Key)
	assert.NotEmpty(t, room.Desc)

	var character handlers.CharacterView
	postJSON(t, client, "/v1/characters",
		handlers.CreateCharacterRequest{Key: "Tester", Room: room.Dbref},
		&character, http.StatusCreated)
	require.NotEmpty(t, character.Dbref)

	var say handlers.SayResponse
	postJSON(t, client, "/v1/say",
		handlers.SayRequest{Speaker: character.Dbref, Message: "computer, pin This room exists for testing."},
		&say, http.StatusOK)
	assert.True(t, say.Accepted)
	assert.Equal(t, room.Dbref, say.Room)

	// The pin is deterministic; it should be visible immediately.
	resp, err := client.Get(apiBaseURL + "/v1/rooms/" + room.Dbref)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view handlers.RoomView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Contains(t, view.PinnedFacts, "This room exists for testing.")
	assert.Contains(t, view.Memory, "Tester:")
}

func TestDig(t *testing.T) {
	client := httpClient()

	var room handlers.RoomView
	postJSON(t, client, "/v1/rooms", handlers.CreateRoomRequest{Key: "Dig Origin"}, &room, http.StatusCreated)

	var dig handlers.DigResponse
	postJSON(t, client, "/v1/dig",
		handlers.DigRequest{Room: room.Dbref, Exit: "north", Target: "Dig Annex"},
		&dig, http.StatusOK)
	assert.Contains(t, dig.Result, "Dig Annex")

	resp, err := client.Get(apiBaseURL + "/v1/rooms/" + room.Dbref)
	require.NoError(t, err)
	defer resp.Body.Close()

	var view handlers.RoomView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Len(t, view.Exits, 1)
	assert.Equal(t, "north", view.Exits[0].Key)
}
