package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/room-director/pkg/world"
)

func TestDigHandler_CreatesRoomAndBackExit(t *testing.T) {
	env := newTestEnv(t)
	h := NewDigHandler(env.game, env.eng, env.logger)

	rr := postJSON(t, h, "/v1/dig", DigRequest{
		Room:   env.roomObj.Dbref(),
		Exit:   "north",
		Target: "Observation Deck",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	var resp DigResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Result, "Observation Deck")

	env.eng.Call(func() {
		ex := world.FindExit(env.roomObj, "north")
		require.NotNil(t, ex)
		destID, ok := ex.Attr(world.AttrDestination).(int)
		require.True(t, ok)
		dest := env.w.Get(destID)
		require.NotNil(t, dest)
		assert.Equal(t, "Observation Deck", dest.Key())
		// Reverse cardinal exit back to the origin.
		back := world.FindExit(dest, "south")
		require.NotNil(t, back)
	})
}

func TestDigHandler_RemoveMode(t *testing.T) {
	env := newTestEnv(t)
	h := NewDigHandler(env.game, env.eng, env.logger)

	rr := postJSON(t, h, "/v1/dig", DigRequest{
		Room:   env.roomObj.Dbref(),
		Exit:   "east",
		Target: "Garden",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(t, h, "/v1/dig", DigRequest{
		Room: env.roomObj.Dbref(),
		Exit: "east",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	env.eng.Call(func() {
		assert.Nil(t, world.FindExit(env.roomObj, "east"))
	})
}

func TestDigHandler_OriginNotFound(t *testing.T) {
	env := newTestEnv(t)
	h := NewDigHandler(env.game, env.eng, env.logger)

	rr := postJSON(t, h, "/v1/dig", DigRequest{Room: "#999", Exit: "north", Target: "Nowhere"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDigHandler_Validation(t *testing.T) {
	env := newTestEnv(t)
	h := NewDigHandler(env.game, env.eng, env.logger)

	rr := postJSON(t, h, "/v1/dig", DigRequest{Room: env.roomObj.Dbref()})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
