package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/llmhost/internal/jsonrpc"
)

func newHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(NewHTTP(testLogger(), "", newFullDispatcher(t)))
	t.Cleanup(srv.Close)

	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)

	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	return resp, buf.Bytes()
}

func TestHTTPToolsList(t *testing.T) {
	srv := newHTTPServer(t)

	resp, body := postJSON(t, srv.URL+MCPPath,
		`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var decoded struct {
		ID     int `json:"id"`
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, 1, decoded.ID)
	assert.NotEmpty(t, decoded.Result.Tools)
}

func TestHTTPUnknownMethod(t *testing.T) {
	srv := newHTTPServer(t)

	resp, body := postJSON(t, srv.URL+MCPPath,
		`{"jsonrpc":"2.0","id":9,"method":"nope","params":{}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t,
		`{"jsonrpc":"2.0","id":9,"error":{"code":-32601,"message":"Method not found: nope"}}`,
		string(body))
}

func TestHTTPRejectsNonPost(t *testing.T) {
	srv := newHTTPServer(t)

	resp, err := http.Get(srv.URL + MCPPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTPUndecodableBody(t *testing.T) {
	srv := newHTTPServer(t)

	resp, body := postJSON(t, srv.URL+MCPPath, `{not json`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var decoded jsonrpc.Response
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, jsonrpc.CodeInternalError, decoded.Error.Code)
}

func TestHTTPHealthz(t *testing.T) {
	srv := newHTTPServer(t)

	resp, err := http.Get(srv.URL + HealthPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPConcurrentRequests(t *testing.T) {
	srv := newHTTPServer(t)

	const parallel = 8

	var wg sync.WaitGroup
	for i := 0; i < parallel; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			resp, body := postJSON(t, srv.URL+MCPPath,
				`{"jsonrpc":"2.0","id":1,"method":"resources/list","params":{}}`)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, string(body), "llm://model/info")
		}()
	}

	wg.Wait()
}
