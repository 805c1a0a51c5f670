package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gridwalk/internal/actor"
	"gridwalk/internal/config"
	"gridwalk/internal/geom"
	"gridwalk/internal/threading/monitoring"
	"gridwalk/internal/world"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T) (*world.WorldManager, *monitoring.PerformanceMonitor) {
	t.Helper()
	tiles := world.NewTileManager()
	require.NoError(t, tiles.SetTiles(map[string]config.TileData{
		"floor": {Letter: ".", Walkable: true},
		"wall":  {Letter: "W"},
	}))
	md, err := world.NewMapLoader(tiles).Parse(strings.NewReader(strings.Join([]string{
		"WWWWWW",
		"W@...W  >[actor:walker]",
		"WWWWWW",
	}, "\n")))
	require.NoError(t, err)

	archetypes := &actor.ArchetypeConfig{Actors: map[string]actor.Archetype{
		"walker": {Speed: 64, Width: 1, Height: 1},
	}}
	monitor := monitoring.NewPerformanceMonitor()
	wm := world.NewWorldManager(config.DefaultConfig(), tiles, archetypes, nil, monitor)
	wm.AddMap("hall", md)
	require.NoError(t, wm.Activate(context.Background(), "hall"))
	return wm, monitor
}

func TestCaptureIncludesOrders(t *testing.T) {
	wm, monitor := newTestWorld(t)
	h := wm.Handles()[0]
	require.True(t, wm.Command(h, geom.Point{X: 128, Y: 32}, nil))
	wm.Update(16 * time.Millisecond)

	snap := Capture(7, wm, monitor)
	assert.Equal(t, uint64(7), snap.Tick)
	assert.Equal(t, "hall", snap.Map)
	require.Len(t, snap.Actors, 1)

	a := snap.Actors[0]
	assert.Equal(t, uint32(h), a.Handle)
	assert.Equal(t, "walker", a.Key)
	assert.Equal(t, Point{X: 32, Y: 32}, a.Position)
	assert.Equal(t, 16, a.Width)
	assert.Equal(t, "following", a.Order)
	require.NotEmpty(t, a.Path)
	assert.Equal(t, Point{X: 128, Y: 32}, a.Path[len(a.Path)-1])
	assert.Equal(t, uint64(1), snap.Metrics.IdealSearches)
}

func TestEncodeDecodeSnapshot(t *testing.T) {
	snap := &FrameSnapshot{
		Tick: 3,
		Map:  "hall",
		Actors: []ActorState{{
			Handle: 1, Key: "walker", Position: Point{X: 16, Y: 32}, Width: 16, Height: 16,
			Direction: "right", Order: "following", Path: []Point{{X: 32, Y: 32}},
		}},
		Metrics: MetricsState{Reroutes: 2, ActiveOrders: 1},
	}
	data, err := Encode(snap)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	_, err = Decode([]byte{0xc1})
	assert.Error(t, err)
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte, 1)}

	hub.registerClient(client)
	assert.Equal(t, 1, hub.ClientCount())

	hub.unregisterClient(client)
	hub.unregisterClient(client)
	assert.Zero(t, hub.ClientCount())
	_, open := <-client.send
	assert.False(t, open)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.registerClient(client)

	hub.broadcastMessage([]byte("a"))
	hub.broadcastMessage([]byte("b"))
	assert.Zero(t, hub.ClientCount())
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 20; i++ {
		require.NoError(t, hub.Broadcast(&FrameSnapshot{Tick: uint64(i)}))
	}
	assert.Equal(t, uint64(4), hub.Dropped())
}

func TestHubStreamsSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	wm, monitor := newTestWorld(t)
	require.NoError(t, hub.Broadcast(Capture(1, wm, monitor)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)

	snap, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Tick)
	require.Len(t, snap.Actors, 1)
	assert.Equal(t, "walker", snap.Actors[0].Key)
	assert.Empty(t, snap.Actors[0].Order)

	cancel()
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "hub shutdown closes the connection")
}

func TestServerHealthz(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server, err := Listen("127.0.0.1:0", NewHub())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + server.Addr() + "/healthz")
		return err == nil
	}, time.Second, 10*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
