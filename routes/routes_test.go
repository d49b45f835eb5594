package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tkd-tournament/brackets"
	"github.com/Dosada05/tkd-tournament/handlers"
	"github.com/Dosada05/tkd-tournament/repositories"
	"github.com/Dosada05/tkd-tournament/services"
)

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func newAPI(t *testing.T) (*apiClient, *brackets.Hub) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore()
	coord := services.NewCoordinator()
	hub := brackets.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	athletes := services.NewAthleteService(store, coord, hub, logger)
	router := chi.NewRouter()
	SetupRoutes(router, []string{"*"}, Handlers{
		Athlete:   handlers.NewAthleteHandler(athletes),
		Category:  handlers.NewCategoryHandler(services.NewCategoryService(store, coord, hub, logger)),
		Bracket:   handlers.NewBracketHandler(services.NewBracketService(store, coord, hub, logger)),
		Match:     handlers.NewMatchHandler(services.NewMatchService(store, coord, hub, logger)),
		Dashboard: handlers.NewDashboardHandler(services.NewDashboardService(store, coord)),
		Sync:      handlers.NewSyncHandler(services.NewRosterService(athletes, nil, nil, 0, hub, logger)),
		Snapshot:  handlers.NewSnapshotHandler(services.NewSnapshotService(store, coord, nil, logger)),
		WebSocket: handlers.NewWebSocketHandler(hub),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiClient{t: t, srv: srv}, hub
}

func (c *apiClient) do(method, path string, body interface{}) (int, map[string]json.RawMessage) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	out := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(raw)) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (c *apiClient) id(method, path string, body interface{}, key string) int {
	c.t.Helper()
	status, out := c.do(method, path, body)
	require.Equal(c.t, http.StatusCreated, status, "%s %s", method, path)
	var obj struct {
		ID int `json:"id"`
	}
	require.NoError(c.t, json.Unmarshal(out[key], &obj))
	return obj.ID
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealthz(t *testing.T) {
	api, _ := newAPI(t)
	status, _ := api.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestTournamentFlow(t *testing.T) {
	api, _ := newAPI(t)

	athleteIDs := make([]int, 0, 3)
	for _, name := range []string{"Budi", "Agus", "Dimas"} {
		athleteIDs = append(athleteIDs, api.id(http.MethodPost, "/api/athletes",
			map[string]interface{}{"name": name, "gender": "M", "weight": 50, "is_present": true}, "athlete"))
	}

	mainID := api.id(http.MethodPost, "/api/main-categories", map[string]interface{}{"name": "Kyorugi"}, "main_category")
	subID := api.id(http.MethodPost, fmt.Sprintf("/api/main-categories/%d/sub-categories", mainID),
		map[string]interface{}{"name": "Junior Putra -50kg", "order": 1}, "sub_category")
	groupID := api.id(http.MethodPost, fmt.Sprintf("/api/sub-categories/%d/groups", subID),
		map[string]interface{}{"name": "Partai 1", "match_number": 1}, "group")

	type member struct {
		AthleteID  int    `json:"athlete_id"`
		Position   string `json:"position"`
		QueueOrder int    `json:"queue_order"`
	}
	wantPositions := []string{"red", "blue", "queue"}
	for i, id := range athleteIDs {
		status, out := api.do(http.MethodPost, fmt.Sprintf("/api/groups/%d/athletes", groupID), map[string]interface{}{"athlete_id": id})
		require.Equal(t, http.StatusCreated, status)
		m := decode[member](t, out["group_athlete"])
		assert.Equal(t, wantPositions[i], m.Position)
	}

	status, out := api.do(http.MethodPost, fmt.Sprintf("/api/groups/%d/athletes", groupID), map[string]interface{}{"athlete_id": athleteIDs[0]})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(out["error"]), "already in this group")

	status, out = api.do(http.MethodGet, fmt.Sprintf("/api/groups/%d", groupID), nil)
	require.Equal(t, http.StatusOK, status)
	group := decode[struct {
		CurrentCount int `json:"current_count"`
	}](t, out["group"])
	assert.Equal(t, 3, group.CurrentCount)

	// бой: красный против синего на ринге 1
	matchID := api.id(http.MethodPost, "/api/matches", map[string]interface{}{
		"group_id": groupID, "red_athlete_id": athleteIDs[0], "blue_athlete_id": athleteIDs[1], "ring": "1",
	}, "match")

	status, _ = api.do(http.MethodPost, "/api/matches", map[string]interface{}{
		"red_athlete_id": athleteIDs[2], "blue_athlete_id": athleteIDs[0], "ring": "2",
	})
	assert.Equal(t, http.StatusConflict, status)

	// угол идущего боя нельзя вручную отпустить
	status, _ = api.do(http.MethodPatch, fmt.Sprintf("/api/athletes/%d/status", athleteIDs[0]), map[string]interface{}{"status": "available"})
	assert.Equal(t, http.StatusConflict, status)

	status, out = api.do(http.MethodGet, "/api/athletes/competing", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]member](t, out["athletes"]), 2)

	status, out = api.do(http.MethodGet, "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, status)
	stats := decode[map[string]int](t, out["stats"])
	assert.Equal(t, 3, stats["total_athletes"])
	assert.Equal(t, 1, stats["active_matches"])
	assert.Equal(t, 2, stats["competing_athletes"])

	status, _ = api.do(http.MethodPost, fmt.Sprintf("/api/matches/%d/winner", matchID), map[string]interface{}{"winner_id": athleteIDs[0]})
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodPost, fmt.Sprintf("/api/matches/%d/winner", matchID), map[string]interface{}{"winner_id": athleteIDs[0]})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(http.MethodPatch, fmt.Sprintf("/api/groups/%d/athletes/%d/eliminate", groupID, athleteIDs[1]), nil)
	require.Equal(t, http.StatusOK, status)

	status, out = api.do(http.MethodPost, fmt.Sprintf("/api/groups/%d/advance", groupID), nil)
	require.Equal(t, http.StatusOK, status)
	members := decode[[]member](t, out["athletes"])
	require.Len(t, members, 2)
	assert.Equal(t, member{AthleteID: athleteIDs[0], Position: "red"}, members[0])
	assert.Equal(t, member{AthleteID: athleteIDs[2], Position: "blue"}, members[1])

	status, out = api.do(http.MethodGet, fmt.Sprintf("/api/main-categories/%d/tree", mainID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(out["tree"]), "Partai 1")

	status, out = api.do(http.MethodGet, "/api/snapshots/current", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, out, "athletes")
	assert.Contains(t, out, "matches")
}

func TestErrorMapping(t *testing.T) {
	api, _ := newAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown athlete", http.MethodGet, "/api/athletes/42", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/athletes/abc", nil, http.StatusBadRequest},
		{"invalid gender", http.MethodPost, "/api/athletes", map[string]interface{}{"name": "X", "gender": "Z"}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/athletes", map[string]interface{}{"name": "X", "gender": "M", "nickname": "x"}, http.StatusBadRequest},
		{"competing without ring", http.MethodPost, "/api/matches", map[string]interface{}{"red_athlete_id": 1, "blue_athlete_id": 2}, http.StatusBadRequest},
		{"sub category of missing main", http.MethodPost, "/api/main-categories/9/sub-categories", map[string]interface{}{"name": "S"}, http.StatusBadRequest},
		{"unknown match", http.MethodGet, "/api/matches/9", nil, http.StatusNotFound},
		{"sync not configured", http.MethodPost, "/api/sync/roster/POPDA", nil, http.StatusServiceUnavailable},
		{"transfer not configured", http.MethodPost, "/api/sync/transfer", nil, http.StatusServiceUnavailable},
		{"archive not configured", http.MethodPost, "/api/snapshots", nil, http.StatusServiceUnavailable},
		{"bad status filter", http.MethodGet, "/api/athletes?status=sleeping", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestDeleteHierarchyOverHTTP(t *testing.T) {
	api, _ := newAPI(t)

	mainID := api.id(http.MethodPost, "/api/main-categories", map[string]interface{}{"name": "Poomsae"}, "main_category")
	subID := api.id(http.MethodPost, fmt.Sprintf("/api/main-categories/%d/sub-categories", mainID),
		map[string]interface{}{"name": "Kadet", "order": 1}, "sub_category")
	groupID := api.id(http.MethodPost, fmt.Sprintf("/api/sub-categories/%d/groups", subID),
		map[string]interface{}{"name": "Partai 1"}, "group")

	steps := []struct {
		path string
		want int
	}{
		{fmt.Sprintf("/api/sub-categories/%d", subID), http.StatusConflict},
		{fmt.Sprintf("/api/main-categories/%d", mainID), http.StatusConflict},
		{fmt.Sprintf("/api/groups/%d", groupID), http.StatusNoContent},
		{fmt.Sprintf("/api/sub-categories/%d", subID), http.StatusNoContent},
		{fmt.Sprintf("/api/sub-categories/%d", subID), http.StatusNotFound},
		{fmt.Sprintf("/api/main-categories/%d", mainID), http.StatusNoContent},
	}
	for _, step := range steps {
		status, _ := api.do(http.MethodDelete, step.path, nil)
		assert.Equal(t, step.want, status, step.path)
	}
}

func TestStatusEventsReachWebSocket(t *testing.T) {
	api, hub := newAPI(t)

	url := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	id := api.id(http.MethodPost, "/api/athletes", map[string]interface{}{"name": "Budi", "gender": "M"}, "athlete")
	status, _ := api.do(http.MethodPatch, fmt.Sprintf("/api/athletes/%d/status", id), map[string]interface{}{"status": "competing", "ring": "3"})
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var types []string
	for len(types) < 2 {
		var msg brackets.WebSocketMessage
		require.NoError(t, conn.ReadJSON(&msg))
		types = append(types, msg.Type)
	}
	assert.Equal(t, []string{services.EventAthleteCreated, services.EventStatusUpdated}, types)
}
