package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"spring2node/internal/convert"
	"spring2node/internal/extract"
	"spring2node/internal/gen"
	"spring2node/internal/llm"
	"spring2node/internal/mapper"
	"spring2node/internal/pipeline"
)

var reClassComment = regexp.MustCompile(`(?m)^// (\w+)$`)

func serviceRepo(t *testing.T, names ...string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "demo-api")
	src := filepath.Join(root, "src", "main", "java", "com", "example")
	require.NoError(t, os.MkdirAll(src, 0o755))
	for _, name := range names {
		body := fmt.Sprintf("package com.example;\n\n@Service\npublic class %s {\n}\n", name)
		require.NoError(t, os.WriteFile(filepath.Join(src, name+".java"), []byte(body), 0o644))
	}
	return root
}

func fakeFactory(respond func(prompt string) (string, error), workers int) ComponentFactory {
	return func(ctx context.Context, req pipeline.Request) (pipeline.Components, error) {
		fake := &llm.FakeClient{Respond: respond}
		return pipeline.Components{
			Extractor: extract.NewExtractor(fake, nil, nil),
			Converter: convert.NewConverter(fake, nil, req.Framework, req.ORM, nil),
			Mapper:    mapper.New(nil),
			Generator: gen.NewGenerator(nil),
			Workers:   workers,
		}, nil
	}
}

// fastRespond gives every extraction a passing module and every conversion
// a clean artifact.
func fastRespond(prompt string) (string, error) {
	if m := reClassComment.FindStringSubmatch(prompt); m != nil && strings.Contains(prompt, "JSON object") {
		return fmt.Sprintf(`{
  "name": %q,
  "description": "Coordinates business operations exposed by this module.",
  "methods": [],
  "dependencies": []
}`, m[1]), nil
	}
	return "module.exports = {};", nil
}

func submit(t *testing.T, ts *httptest.Server, req pipeline.Request) (JobStatus, *http.Response) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/convert", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var st JobStatus
	if resp.StatusCode == http.StatusAccepted {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	}
	return st, resp
}

func getStatus(t *testing.T, ts *httptest.Server, id string) JobStatus {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/convert/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st JobStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func waitTerminal(t *testing.T, ts *httptest.Server, id string) JobStatus {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		st := getStatus(t, ts, id)
		if terminal(st.State) {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal state", id)
	return JobStatus{}
}

func TestJobLifecycle(t *testing.T) {
	root := serviceRepo(t, "BillingService")
	srv := New(":0", fakeFactory(fastRespond, 2), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	out := filepath.Join(t.TempDir(), "out")
	st, resp := submit(t, ts, pipeline.Request{Source: root, OutputDir: out})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NotEmpty(t, st.ID)

	final := waitTerminal(t, ts, st.ID)
	require.Equal(t, pipeline.StateCompleted, final.State)
	require.Equal(t, 100.0, final.Progress)
	require.Equal(t, out, final.OutputDir)
	_, err := os.Stat(filepath.Join(out, "package.json"))
	require.NoError(t, err)

	resp2, err := http.Get(ts.URL + "/api/convert")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var all []JobStatus
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&all))
	require.Len(t, all, 1)
	require.Equal(t, st.ID, all[0].ID)
}

func TestSubmitRejectsBadRequest(t *testing.T) {
	srv := New(":0", fakeFactory(fastRespond, 1), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, resp := submit(t, ts, pipeline.Request{Source: "x", Framework: "rails"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, resp = submit(t, ts, pipeline.Request{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitRejectsBadProfile(t *testing.T) {
	factory := func(ctx context.Context, req pipeline.Request) (pipeline.Components, error) {
		return pipeline.Components{}, fmt.Errorf("profile %q not found", req.Profile)
	}
	srv := New(":0", factory, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, resp := submit(t, ts, pipeline.Request{Source: "x", Profile: "nope"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownJob(t *testing.T) {
	srv := New(":0", fakeFactory(fastRespond, 1), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/convert/no-such-id")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/convert/no-such-id", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelRunningJob(t *testing.T) {
	root := serviceRepo(t, "Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel")
	slow := func(prompt string) (string, error) {
		time.Sleep(25 * time.Millisecond)
		return fastRespond(prompt)
	}
	srv := New(":0", fakeFactory(slow, 1), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	st, resp := submit(t, ts, pipeline.Request{Source: root})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/convert/"+st.ID, nil)
	require.NoError(t, err)
	dresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	dresp.Body.Close()
	require.Equal(t, http.StatusAccepted, dresp.StatusCode)

	final := waitTerminal(t, ts, st.ID)
	require.Equal(t, pipeline.StateCancelled, final.State)
	require.Less(t, final.Progress, 100.0)
}

func TestProgressWebsocket(t *testing.T) {
	root := serviceRepo(t, "BillingService")
	srv := New(":0", fakeFactory(fastRespond, 2), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	st, resp := submit(t, ts, pipeline.Request{Source: root, OutputDir: filepath.Join(t.TempDir(), "out")})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/convert/" + st.ID + "/progress"
	conn, wresp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	wresp.Body.Close()

	var last JobStatus
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
		var msg JobStatus
		if err := conn.ReadJSON(&msg); err != nil {
			// Normal closure after the terminal snapshot.
			require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "read error: %v", err)
			break
		}
		require.Positive(t, msg.TotalPhases)
		last = msg
		if terminal(last.State) {
			break
		}
	}
	require.Equal(t, pipeline.StateCompleted, last.State)
	require.Equal(t, 100.0, last.Progress)
}
