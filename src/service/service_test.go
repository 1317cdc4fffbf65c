package service

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mosaicnetworks/murmur/src/common"
	"github.com/mosaicnetworks/murmur/src/echo"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranNode(t *testing.T, id string) *node.Node {
	input := `{"src":"c0","dest":"` + id + `","body":{"type":"init","msg_id":1,"node_id":"` + id + `","node_ids":["` + id + `"]}}` + "\n" +
		`{"src":"c1","dest":"` + id + `","body":{"type":"echo","msg_id":2,"echo":"x"}}` + "\n"

	n := node.NewNode(node.TestConfig(t), echo.New, strings.NewReader(input), ioutil.Discard)
	require.NoError(t, n.Run())
	return n
}

func get(t *testing.T, server *httptest.Server, path string) (string, http.Header) {
	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body), resp.Header
}

func TestStatsAndMetrics(t *testing.T) {
	logger := logrus.NewEntry(common.NewTestLogger(t, logrus.DebugLevel))
	srv := NewService("127.0.0.1:0", logger)

	require.NoError(t, srv.Register("a", ranNode(t, "n0")))
	require.NoError(t, srv.Register("b", ranNode(t, "n1")))

	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	body, header := get(t, server, "/stats")
	assert.Equal(t, "*", header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))

	var stats map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	require.Len(t, stats, 2)
	assert.Equal(t, "n0", stats["a"]["id"])
	assert.Equal(t, "2", stats["b"]["messages_received"])
	assert.Equal(t, "Shutdown", stats["b"]["state"])

	body, _ = get(t, server, "/nodes")
	var nodes []map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0]["name"])
	assert.Equal(t, "n0", nodes[0]["id"])

	metrics, _ := get(t, server, "/metrics")
	assert.Contains(t, metrics, `murmur_messages_received_total{node="a",type="echo"} 1`)
	assert.Contains(t, metrics, `murmur_messages_sent_total{node="b",type="echo_ok"} 1`)
}

func TestRegisterTwiceFails(t *testing.T) {
	logger := logrus.NewEntry(common.NewTestLogger(t, logrus.DebugLevel))
	srv := NewService("127.0.0.1:0", logger)

	n := ranNode(t, "n0")
	require.NoError(t, srv.Register("", n))
	assert.Error(t, srv.Register("", n))
}

func TestCloseBeforeServe(t *testing.T) {
	logger := logrus.NewEntry(common.NewTestLogger(t, logrus.DebugLevel))
	srv := NewService("127.0.0.1:0", logger)

	require.NoError(t, srv.Close())
	assert.NoError(t, srv.Serve())
}

func TestListenReportsBusyAddress(t *testing.T) {
	logger := logrus.NewEntry(common.NewTestLogger(t, logrus.DebugLevel))

	first := NewService("127.0.0.1:0", logger)
	require.NoError(t, first.Listen())
	defer first.Close()

	second := NewService(first.Addr().String(), logger)
	assert.Error(t, second.Listen())
	assert.Error(t, second.Serve())
}

func TestServeOnBoundListener(t *testing.T) {
	logger := logrus.NewEntry(common.NewTestLogger(t, logrus.DebugLevel))
	srv := NewService("127.0.0.1:0", logger)
	require.NoError(t, srv.Register("", ranNode(t, "n0")))
	require.NoError(t, srv.Listen())

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	resp, err := http.Get("http://" + srv.Addr().String() + "/nodes")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Close())
	assert.NoError(t, <-done)
}
