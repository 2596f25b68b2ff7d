package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/config"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/mocks"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/phrazzld/minutes-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const meetingTranscript = "Alice will draft the plan on Monday. Bob reviews it once Alice is done."

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "debug",
			CORSAllowedOrigins:     []string{"https://minutes.example.com"},
			ShutdownTimeoutSeconds: 2,
		},
		Database:   config.DatabaseConfig{Driver: config.DriverMemory},
		LLM:        config.LLMConfig{GeminiAPIKey: "test-key", ModelName: "gemini-test"},
		Submission: config.SubmissionConfig{MinLength: 50},
		Dedup:      config.DedupConfig{HashAlgorithm: "sha256"},
		Scheduler:  config.SchedulerConfig{JobRetentionMinutes: 60},
	}
}

func newTestApp(t *testing.T, ext *mocks.MockExtractor) *application {
	t.Helper()
	log, _ := logger.NewTestLogger(t)
	app, err := newApplication(context.Background(), testConfig(), log, ext)
	require.NoError(t, err)
	t.Cleanup(app.close)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Message string `json:"message"`
		TraceID string `json:"traceId"`
	} `json:"error"`
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestNewApplication(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger(t)

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := testConfig()
		cfg.Database.Driver = "sqlite"
		_, err := newApplication(context.Background(), cfg, log, mocks.NewMockExtractorWithJSON(`[]`))
		assert.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("unknown hash algorithm", func(t *testing.T) {
		cfg := testConfig()
		cfg.Dedup.HashAlgorithm = "md5"
		_, err := newApplication(context.Background(), cfg, log, mocks.NewMockExtractorWithJSON(`[]`))
		assert.ErrorContains(t, err, "content hasher")
	})

	t.Run("memory driver", func(t *testing.T) {
		app := newTestApp(t, mocks.NewMockExtractorWithJSON(`[]`))
		assert.Nil(t, app.db)
		assert.NotNil(t, app.store)
		assert.NoError(t, app.healthCheck(context.Background()))
	})
}

func TestRouter_TranscriptLifecycle(t *testing.T) {
	t.Parallel()

	ext := mocks.NewMockExtractorWithJSON(`[
		{"id": "A", "description": "Draft the plan", "priority": "high", "dependencies": []},
		{"id": "B", "description": "Review the plan", "priority": "medium", "dependencies": ["A"]}
	]`)
	app := newTestApp(t, ext)
	app.scheduler.Start(context.Background())
	t.Cleanup(func() { _ = app.scheduler.Stop(context.Background()) })

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)

	body := `{"transcript":"` + meetingTranscript + `"}`
	status, env := call(t, srv, http.MethodPost, "/api/transcripts", body)
	require.Equal(t, http.StatusAccepted, status)
	var submitted service.SubmitResult
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.False(t, submitted.IsDuplicate)

	status, env = call(t, srv, http.MethodPost, "/api/transcripts", `{"transcript":"  `+strings.ToUpper(meetingTranscript)+`  "}`)
	require.Equal(t, http.StatusOK, status)
	var dup service.SubmitResult
	require.NoError(t, json.Unmarshal(env.Data, &dup))
	assert.True(t, dup.IsDuplicate)
	assert.Equal(t, submitted.JobID, dup.JobID)

	var snap service.JobSnapshot
	require.Eventually(t, func() bool {
		status, env := call(t, srv, http.MethodGet, "/api/jobs/"+submitted.JobID.String(), "")
		if status != http.StatusOK || json.Unmarshal(env.Data, &snap) != nil {
			return false
		}
		return snap.Status == domain.TranscriptStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	require.Len(t, snap.Tasks, 2)
	byRef := map[string]*domain.Task{}
	for _, task := range snap.Tasks {
		byRef[task.Ref] = task
	}
	assert.Equal(t, domain.TaskStatusReady, byRef["A"].Status)
	assert.Equal(t, domain.TaskStatusBlocked, byRef["B"].Status)
	assert.Equal(t, []string{byRef["A"].ID, byRef["B"].ID}, snap.ExecutionOrder)

	status, env = call(t, srv, http.MethodPost, "/api/tasks/"+byRef["A"].ID+"/complete", "")
	require.Equal(t, http.StatusOK, status)
	var completed service.CompletionResult
	require.NoError(t, json.Unmarshal(env.Data, &completed))
	assert.Equal(t, []string{byRef["B"].ID}, completed.Unblocked)

	status, env = call(t, srv, http.MethodGet, "/api/jobs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, env.Error.TraceID)

	status, _ = call(t, srv, http.MethodGet, "/api/queue/stats", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, ext.CallCount())
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, mocks.NewMockExtractorWithJSON(`[]`))
	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)

	call(t, srv, http.MethodGet, "/health", "")

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `minutes_http_requests_total{code="200",method="GET",route="/health",service="minutes-api"} 1`)
	assert.Contains(t, string(raw), "minutes_job_queue_depth")
}

func TestRouter_CORS(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, mocks.NewMockExtractorWithJSON(`[]`))
	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/transcripts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://minutes.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://minutes.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServe_GracefulShutdown(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, mocks.NewMockExtractorWithJSON(`[]`))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}

	_, err = app.service.Submit(context.Background(), meetingTranscript)
	assert.ErrorIs(t, err, service.ErrSchedulerUnavailable)
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger(t)
	err := migrate(context.Background(), testConfig(), log, "up")
	assert.ErrorContains(t, err, "require the postgres driver")
}

func TestMigrateCmd_Args(t *testing.T) {
	t.Parallel()

	assert.NoError(t, migrateCmd.Args(migrateCmd, nil))
	assert.NoError(t, migrateCmd.Args(migrateCmd, []string{"status"}))
	assert.Error(t, migrateCmd.Args(migrateCmd, []string{"sideways"}))
	assert.Error(t, migrateCmd.Args(migrateCmd, []string{"up", "down"}))
}
