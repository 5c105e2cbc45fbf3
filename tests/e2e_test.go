package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BuzzLyutic/tasklist-api/internal/handler"
	"github.com/BuzzLyutic/tasklist-api/internal/model"
	"github.com/BuzzLyutic/tasklist-api/internal/repo"
	"github.com/BuzzLyutic/tasklist-api/internal/service"
	"github.com/BuzzLyutic/tasklist-api/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupE2EServer(t *testing.T) (*httptest.Server, func()) {
	pool, cleanup := SetupTestDB(t)
	TruncateTables(t, pool)

	taskRepo := repo.NewTaskRepo(pool)
	taskService := service.NewTaskService(taskRepo)
	logger := zap.NewNop()
	taskHandler := handler.NewTaskHandler(taskService, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)
		r.Get("/{id}", taskHandler.Get)
		r.Post("/{id}/complete", taskHandler.Complete)
		r.Delete("/{id}", taskHandler.Delete)
	})

	r.Get("/api/stats", taskHandler.Stats)

	// Интервал в час, чтобы ретенция не вмешивалась в сценарии
	sweeper := worker.NewSweeper(pool, logger, time.Hour, 30)
	sweeper.Start(context.Background())

	server := httptest.NewServer(r)

	cleanupFunc := func() {
		sweeper.Stop()
		server.Close()
		cleanup()
	}

	return server, cleanupFunc
}

func TestE2E_FullWorkflow(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	t.Run("complete CRUD workflow", func(t *testing.T) {
		// 1. Create task
		createBody := model.Task{
			Name:        "E2E Test Task",
			Description: "end to end",
		}
		body, _ := json.Marshal(createBody)

		resp, err := http.Post(server.URL+"/api/tasks", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var created model.Task
		json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()

		require.Equal(t, int64(1), created.ID)
		assert.Equal(t, "E2E Test Task", created.Name)
		assert.Nil(t, created.ClosedOn)

		// 2. Get task
		resp, err = http.Get(fmt.Sprintf("%s/api/tasks/%d", server.URL, created.ID))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var fetched model.Task
		json.NewDecoder(resp.Body).Decode(&fetched)
		resp.Body.Close()
		assert.Equal(t, created.ID, fetched.ID)

		// 3. Complete task
		resp, err = http.Post(fmt.Sprintf("%s/api/tasks/%d/complete", server.URL, created.ID), "", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()

		// 4. List shows it completed
		resp, err = http.Get(server.URL + "/api/tasks?status=completed")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var tasks []model.Task
		json.NewDecoder(resp.Body).Decode(&tasks)
		resp.Body.Close()
		require.Len(t, tasks, 1)
		require.NotNil(t, tasks[0].ClosedOn)
		assert.True(t, tasks[0].ClosedOn.Equal(model.Today()))

		// 5. Delete task
		req, _ := http.NewRequest(http.MethodDelete,
			fmt.Sprintf("%s/api/tasks/%d", server.URL, created.ID), nil)

		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()

		// 6. Verify deletion
		resp, err = http.Get(fmt.Sprintf("%s/api/tasks/%d", server.URL, created.ID))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestE2E_SequentialIDs(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	// Create several tasks one after another
	for i := 1; i <= 5; i++ {
		task := model.Task{Name: fmt.Sprintf("Sequential %d", i)}
		body, _ := json.Marshal(task)

		resp, err := http.Post(server.URL+"/api/tasks", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created model.Task
		json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()

		assert.Equal(t, int64(i), created.ID)
		assert.Equal(t, fmt.Sprintf("/api/tasks/%d", i), resp.Header.Get("Location"))
	}

	// Deleting the middle one leaves a gap that is never reused
	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/tasks/3", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	body, _ := json.Marshal(model.Task{Name: "After gap"})
	resp, err = http.Post(server.URL+"/api/tasks", "application/json", bytes.NewReader(body))
	require.NoError(t, err)

	var created model.Task
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	assert.Equal(t, int64(6), created.ID)
}

func TestE2E_Stats(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	for i := 0; i < 4; i++ {
		task := model.Task{Name: fmt.Sprintf("Stats %d", i)}
		body, _ := json.Marshal(task)
		http.Post(server.URL+"/api/tasks", "application/json", bytes.NewReader(body))
	}

	resp, err := http.Post(server.URL+"/api/tasks/1/complete", "", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats service.Stats
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Open)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, int64(5), stats.NextID)
}

func TestE2E_HealthCheck(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()

	assert.Equal(t, "ok", health["status"])
}
