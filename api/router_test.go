package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/youtubify-go/internal/app"
	"github.com/yourusername/youtubify-go/internal/domain"
	"github.com/yourusername/youtubify-go/pkg/logger"
)

// stubEngine implements domain.FetchEngine for testing
type stubEngine struct {
	release chan struct{}
}

func (s *stubEngine) Probe(ctx context.Context, url string) (*domain.ProbeResult, error) {
	if strings.Contains(url, "broken") {
		return nil, errors.New("Unsupported URL")
	}
	return &domain.ProbeResult{Title: "Some Clip", Heights: []int{1080, 720, 360}}, nil
}

func (s *stubEngine) Download(ctx context.Context, url string, _ domain.EngineParameters, onProgress domain.ProgressFunc) error {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	onProgress(domain.ProgressEvent{Kind: domain.ProgressBytes, DownloadedBytes: 50, TotalBytes: 100})
	onProgress(domain.ProgressEvent{Kind: domain.ProgressBytes, DownloadedBytes: 100, TotalBytes: 100})
	onProgress(domain.ProgressEvent{Kind: domain.ProgressTransferComplete})
	return nil
}

type testServer struct {
	*httptest.Server
	jobMgr *app.JobManager
	bus    *logger.EventBus
}

func setupTestServer(t *testing.T, engine *stubEngine) *testServer {
	t.Helper()
	bus := logger.NewEventBus(100, nil)
	jobMgr := app.NewJobManager(engine, nil, bus, nil, &domain.DownloadConfig{HistoryLimit: 64}, nil)
	server := httptest.NewServer(SetupRouter(jobMgr, bus, time.Second, nil))
	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		jobMgr.Shutdown(ctx)
	})
	return &testServer{Server: server, jobMgr: jobMgr, bus: bus}
}

func (s *testServer) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(s.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (s *testServer) wait(t *testing.T, id string) domain.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.jobMgr.Wait(ctx, id)
	require.NoError(t, err)
	return snap
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})

	resp := s.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestSubmitAndGetJob(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})

	resp := s.post(t, "/api/v1/jobs", map[string]interface{}{
		"kind":        "single_item",
		"url":         "https://example.com/watch?v=abc",
		"destination": t.TempDir(),
		"format":      "mp3",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var submitted struct {
		JobID string `json:"job_id"`
	}
	decode(t, resp, &submitted)
	require.NotEmpty(t, submitted.JobID)
	s.wait(t, submitted.JobID)

	resp = s.get(t, "/api/v1/jobs/"+submitted.JobID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap domain.Snapshot
	decode(t, resp, &snap)
	assert.Equal(t, domain.StatusCompleted, snap.Status)
	assert.Equal(t, "Download complete!", snap.LastMessage)
}

func TestSubmitJob_MissingURL(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})

	resp := s.post(t, "/api/v1/jobs", map[string]interface{}{
		"kind":        "playlist",
		"destination": "/tmp/out",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body SubmitResponseBody
	decode(t, resp, &body)
	assert.NotEmpty(t, body.JobID)
	require.NotNil(t, body.Error)
	assert.Equal(t, domain.ErrorMissingURL, body.Error.Kind)
	require.NotNil(t, body.Snapshot)
	assert.Equal(t, domain.StatusFailed, body.Snapshot.Status)
}

// SubmitResponseBody mirrors handlers.SubmitResponse for decoding
type SubmitResponseBody struct {
	JobID    string           `json:"job_id"`
	Snapshot *domain.Snapshot `json:"snapshot"`
	Error    *domain.JobError `json:"error"`
}

func TestSubmitJob_BadJSON(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})

	resp, err := http.Post(s.URL+"/api/v1/jobs", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetJob_NotFound(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})

	resp := s.get(t, "/api/v1/jobs/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListAndStats(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})

	id, err := s.jobMgr.Submit(domain.JobRequest{
		Kind:           domain.KindPlaylist,
		SourceURL:      "https://example.com/playlist?list=PL1",
		DestinationDir: t.TempDir(),
	})
	require.NoError(t, err)
	s.wait(t, id)

	resp := s.get(t, "/api/v1/jobs?kind=playlist")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []domain.JobRecord
	decode(t, resp, &records)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)

	resp = s.get(t, "/api/v1/jobs/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats domain.JobStats
	decode(t, resp, &stats)
	assert.Equal(t, int64(1), stats.Completed)
}

func TestProbeAndStart(t *testing.T) {
	engine := &stubEngine{}
	s := setupTestServer(t, engine)

	resp := s.post(t, "/api/v1/probe", map[string]string{"url": "https://example.com/watch?v=abc"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var meta domain.MediaMetadata
	decode(t, resp, &meta)
	assert.Equal(t, []int{360, 720, 1080}, meta.Heights)

	id, err := s.jobMgr.Submit(domain.JobRequest{
		Kind:           domain.KindSingleItem,
		SourceURL:      "https://example.com/watch?v=abc",
		DestinationDir: t.TempDir(),
		Probe:          domain.ProbeThenWait,
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		snap, _ := s.jobMgr.Get(id)
		return snap.AwaitingStart
	}, 5*time.Second, 5*time.Millisecond)

	resp = s.post(t, "/api/v1/jobs/"+id+"/start", map[string]interface{}{"resolution": 720})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, domain.StatusCompleted, s.wait(t, id).Status)

	resp = s.post(t, "/api/v1/jobs/"+id+"/start", map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProbe_Failure(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})

	resp := s.post(t, "/api/v1/probe", map[string]string{"url": "https://example.com/broken"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestCancelJob(t *testing.T) {
	engine := &stubEngine{release: make(chan struct{})}
	s := setupTestServer(t, engine)

	id, err := s.jobMgr.Submit(domain.JobRequest{
		Kind:           domain.KindSingleItem,
		SourceURL:      "https://example.com/watch?v=abc",
		DestinationDir: t.TempDir(),
	})
	require.NoError(t, err)

	resp := s.post(t, "/api/v1/jobs/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	snap := s.wait(t, id)
	assert.Equal(t, domain.ErrorCancellationRequested, snap.Error.Kind)

	resp = s.post(t, "/api/v1/jobs/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetLogs(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})
	s.bus.Write("[Video] Starting download...")
	s.bus.Write("[Video] Download complete!")

	resp := s.get(t, "/api/v1/logs?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Entries []logger.LogEntry `json:"entries"`
		Count   int               `json:"count"`
	}
	decode(t, resp, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Download complete!", body.Entries[0].Message)
}

func wsURL(s *testServer, path string) string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + path
}

func TestJobEventsStream(t *testing.T) {
	engine := &stubEngine{release: make(chan struct{})}
	s := setupTestServer(t, engine)

	id, err := s.jobMgr.Submit(domain.JobRequest{
		Kind:           domain.KindSingleItem,
		SourceURL:      "https://example.com/watch?v=abc",
		DestinationDir: t.TempDir(),
	})
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(s, "/api/v1/jobs/"+id+"/events"), nil)
	require.NoError(t, err)
	defer conn.Close()
	close(engine.release)

	var statuses []domain.JobStatus
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var snap domain.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		statuses = append(statuses, snap.Status)
	}

	assert.Equal(t, []domain.JobStatus{
		domain.StatusValidating,
		domain.StatusDownloading,
		domain.StatusDownloading,
		domain.StatusPostProcessing,
		domain.StatusCompleted,
	}, statuses)
}

func TestJobEventsStream_UnknownJob(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(s, "/api/v1/jobs/nope/events"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogStream(t *testing.T) {
	s := setupTestServer(t, &stubEngine{})
	s.bus.Write("[Video] backlog line")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(s, "/api/v1/logs/stream"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var entry logger.LogEntry
	require.NoError(t, conn.ReadJSON(&entry))
	assert.Equal(t, "backlog line", entry.Message)

	s.bus.Write("[Playlist] live line")
	require.NoError(t, conn.ReadJSON(&entry))
	assert.Equal(t, "[Playlist]", entry.Tag)
	assert.Equal(t, "live line", entry.Message)
}
