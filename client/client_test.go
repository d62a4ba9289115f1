// client/client_test.go
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/catanclient/config"
	"github.com/wfunc/catanclient/logger"
	"github.com/wfunc/catanclient/models"
)

func init() {
	logger.Init()
}

// testServer fakes the slice of the HTTP contract these tests touch. The
// build action blocks on actionGate so a confirm can be held in flight.
type testServer struct {
	mutex       sync.Mutex
	listOffsets []int

	userID uuid.UUID
	game   *models.GameDetail

	actionGate    chan struct{}
	actionEntered chan struct{}
	enteredOnce   sync.Once

	srv *httptest.Server
}

func newTestServer() *testServer {
	seat := uuid.New()
	ts := &testServer{
		userID:        uuid.New(),
		actionGate:    make(chan struct{}),
		actionEntered: make(chan struct{}),
	}
	ts.game = &models.GameDetail{
		Game: models.Game{
			ID:             uuid.New(),
			Status:         models.GameStarted,
			Phase:          models.PhaseSetup,
			Turn:           1,
			ActivePlayerID: seat,
			Players: []models.Player{
				{ID: seat, UserID: ts.userID, Color: models.ColorRed, TurnOrder: 1, Active: true},
			},
		},
	}
	ts.srv = httptest.NewServer(http.HandlerFunc(ts.handler))
	return ts
}

func (s *testServer) handler(w http.ResponseWriter, r *http.Request) {
	gamePath := "/catan/games/" + s.game.ID.String()
	switch r.URL.Path {
	case "/auth/login":
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "a1",
			"refreshToken": "r1",
		})
	case "/user/me":
		json.NewEncoder(w).Encode(models.User{ID: s.userID, DisplayName: "tester"})
	case "/catan/games":
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		s.mutex.Lock()
		s.listOffsets = append(s.listOffsets, offset)
		s.mutex.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total": 40,
			"data":  []models.Game{},
		})
	case gamePath:
		json.NewEncoder(w).Encode(s.game)
	case gamePath + "/build-settlement-and-road":
		s.enteredOnce.Do(func() { close(s.actionEntered) })
		<-s.actionGate
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *testServer) offsets() []int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]int, len(s.listOffsets))
	copy(out, s.listOffsets)
	return out
}

func newTestClient(t *testing.T, ts *testServer) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.BaseURL = ts.srv.URL
	cfg.Server.Timeout = 5 * time.Second
	cfg.Realtime.URL = "ws://unused"
	cfg.Realtime.Namespace = "catan"
	cfg.Realtime.ReconnectInterval = 10 * time.Millisecond
	cfg.Storage.Path = filepath.Join(t.TempDir(), "client.db")
	cfg.Notify.TTL = time.Second

	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGamesCachesPerPage(t *testing.T) {
	ts := newTestServer()
	defer ts.srv.Close()
	c := newTestClient(t, ts)
	ctx := context.Background()

	first, err := c.Games(ctx, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 40, first.Total)

	// A different page must reach the server, not the cached envelope.
	_, err = c.Games(ctx, 20, 20)
	require.NoError(t, err)

	// The same page again is served from cache.
	_, err = c.Games(ctx, 20, 20)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 20}, ts.offsets())
}

func TestConfirmKeepsSelectionMadeWhileInFlight(t *testing.T) {
	ts := newTestServer()
	defer ts.srv.Close()
	c := newTestClient(t, ts)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "tester@example.com", "secret"))
	_, err := c.OpenGame(ctx, ts.game.ID)
	require.NoError(t, err)

	firstLand, pathID, secondLand := uuid.New(), uuid.New(), uuid.New()
	c.SelectLand(firstLand)
	c.SelectPath(pathID)
	require.NotNil(t, c.Pending())
	require.True(t, c.Pending().Complete())

	done := make(chan error, 1)
	go func() { done <- c.Confirm(ctx) }()

	select {
	case <-ts.actionEntered:
	case <-time.After(time.Second):
		t.Fatal("confirm never reached the server")
	}

	// The user refines the selection while the confirm is in flight; the
	// clear on success must not discard it.
	c.SelectLand(secondLand)
	close(ts.actionGate)

	require.NoError(t, <-done)

	pending := c.Pending()
	require.NotNil(t, pending, "in-flight selection discarded by the confirm")
	combined, ok := pending.(models.BuildSettlementAndRoad)
	require.True(t, ok, "got %T", pending)
	assert.Equal(t, secondLand, combined.LandID)
	assert.Equal(t, pathID, combined.PathID)
}
