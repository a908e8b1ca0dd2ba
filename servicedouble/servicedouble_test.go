package servicedouble

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	httphelpers.WithServer(HealthHandler(), func(server *httptest.Server) {
		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = http.Get(server.URL + "/other")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHealthServer(t *testing.T) {
	s, err := NewHealthServer()
	require.NoError(t, err)
	defer s.Close()

	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(s.Port()) + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRepliesFallsBackToEcho(t *testing.T) {
	r := Replies(map[string][]string{"ping": {"pong", "pong"}})
	assert.Equal(t, []string{"pong", "pong"}, r("ping"))
	assert.Equal(t, []string{"other"}, r("other"))
	assert.Equal(t, []string{"x"}, Echo("x"))
}

func readMetrics(t *testing.T, path string) map[string]uint64 {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]uint64
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestRelayCountsAndWritesMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	relay, err := NewRelay(WithMetricsFile(path), WithResponder(Replies(map[string][]string{"twice": {"a", "b"}})))
	require.NoError(t, err)
	defer relay.Close()

	assert.Equal(t, map[string]uint64{"messageIngress": 0, "messageEgress": 0}, readMetrics(t, path))
	assert.NotZero(t, relay.PubPort())
	assert.NotZero(t, relay.PullPort())

	push := zmq4.NewPush(context.Background())
	defer push.Close()
	require.NoError(t, push.Dial(listenURL(relay.Host(), relay.PullPort())))
	require.NoError(t, push.Send(zmq4.NewMsgString("twice")))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		var m map[string]uint64
		return json.Unmarshal(data, &m) == nil && m["messageEgress"] == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(1), readMetrics(t, path)["messageIngress"])
	assert.Equal(t, []string{"twice"}, relay.Received())
}

func TestRelayCloseIsIdempotent(t *testing.T) {
	relay, err := NewRelay()
	require.NoError(t, err)
	relay.Close()
	relay.Close()
}
