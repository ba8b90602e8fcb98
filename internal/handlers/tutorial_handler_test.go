package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
	"github.com/lectorhq/lector/internal/services/report"
	"github.com/lectorhq/lector/internal/services/reviewer"
	"github.com/lectorhq/lector/internal/storage/badger"
)

type stubRepoService struct{}

func (stubRepoService) Acquire(ctx context.Context, repoURL, branch string) (string, bool, error) {
	return "", false, nil
}

func (stubRepoService) Remove(repoURL string) error { return nil }

type stubScanner struct{}

func (stubScanner) Scan(rootPath string) ([]models.ContentUnit, error) { return nil, nil }

func newTestHandler(t *testing.T) (*TutorialHandler, interfaces.StorageManager) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "data")

	storage, err := badger.NewManager(arbor.NewLogger(), &cfg.Storage.Badger)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	reviewerSvc := reviewer.NewService(cfg, storage, stubRepoService{}, stubScanner{}, nil, nil, nil, arbor.NewLogger())
	reports := report.NewGenerator(storage, arbor.NewLogger())

	h := NewTutorialHandler(storage, stubRepoService{}, reviewerSvc, reports, nil, arbor.NewLogger())
	return h, storage
}

func TestCreateTutorialValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"repo_url": "https://github.com/acme/go-course.git"}`, http.StatusCreated},
		{"missing url", `{"name": "course"}`, http.StatusBadRequest},
		{"not a url", `{"repo_url": "nope"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/tutorials", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.CollectionHandler(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCreateTutorialDefaults(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"repo_url": "https://github.com/acme/go-course.git"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tutorials", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CollectionHandler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Tutorial
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.True(t, strings.HasPrefix(created.ID, "tut_"))
	require.Equal(t, "go-course", created.Name, "name defaults to the repo name")
	require.Equal(t, "main", created.Branch)
	require.Equal(t, models.TutorialStatusPending, created.Status)
}

func TestTutorialItemRoutes(t *testing.T) {
	h, storage := newTestHandler(t)
	ctx := context.Background()

	tutorial := &models.Tutorial{
		ID:      "tut_routes",
		Name:    "course",
		RepoURL: "https://github.com/acme/course.git",
		Branch:  "main",
		Status:  models.TutorialStatusCompleted,
	}
	require.NoError(t, storage.TutorialStorage().SaveTutorial(ctx, tutorial))

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tutorials/tut_routes", nil)
		rec := httptest.NewRecorder()
		h.ItemHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got models.Tutorial
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Equal(t, "course", got.Name)
	})

	t.Run("get missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tutorials/tut_nope", nil)
		rec := httptest.NewRecorder()
		h.ItemHandler(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown sub-resource", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tutorials/tut_routes/bogus", nil)
		rec := httptest.NewRecorder()
		h.ItemHandler(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("chapters strips content", func(t *testing.T) {
		chapter := &models.Chapter{
			ID: "ch_r1", TutorialID: tutorial.ID, OrderIndex: 0,
			FilePath: "docs/01.md", Title: "Intro",
			Content: "# Intro\n\nbody text",
			Status:  models.ChapterStatusCompleted,
		}
		require.NoError(t, storage.ChapterStorage().SaveChapter(ctx, chapter))

		req := httptest.NewRequest(http.MethodGet, "/api/tutorials/tut_routes/chapters", nil)
		rec := httptest.NewRecorder()
		h.ItemHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, rec.Body.String(), "body text")
		require.Contains(t, rec.Body.String(), "Intro")
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/tutorials/tut_routes", nil)
		rec := httptest.NewRecorder()
		h.ItemHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		_, err := storage.TutorialStorage().GetTutorial(ctx, "tut_routes")
		require.Error(t, err)

		chapters, err := storage.ChapterStorage().ListChapters(ctx, "tut_routes")
		require.NoError(t, err)
		require.Empty(t, chapters)
	})
}

func TestTutorialStats(t *testing.T) {
	h, storage := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, storage.TutorialStorage().SaveTutorial(ctx, &models.Tutorial{
		ID: "tut_a", RepoURL: "https://example.com/a.git",
		Status: models.TutorialStatusCompleted, ChapterCount: 3, HighIssues: 1, LowIssues: 2,
	}))
	require.NoError(t, storage.TutorialStorage().SaveTutorial(ctx, &models.Tutorial{
		ID: "tut_b", RepoURL: "https://example.com/b.git",
		Status: models.TutorialStatusPending,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tutorials/stats", nil)
	rec := httptest.NewRecorder()
	h.StatsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.TutorialStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.Equal(t, 2, stats.TotalTutorials)
	require.Equal(t, 1, stats.ByStatus["completed"])
	require.Equal(t, 1, stats.ByStatus["pending"])
	require.Equal(t, 3, stats.TotalChapters)
	require.Equal(t, 3, stats.TotalIssues)
}

func TestExportMarkdown(t *testing.T) {
	h, storage := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, storage.TutorialStorage().SaveTutorial(ctx, &models.Tutorial{
		ID: "tut_export", Name: "course", RepoURL: "https://example.com/c.git",
		Status: models.TutorialStatusCompleted, OverallScore: 80, Grade: "B",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tutorials/tut_export/export?format=md", nil)
	rec := httptest.NewRecorder()
	h.ItemHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	require.Contains(t, rec.Body.String(), "# Evaluation Report: course")

	req = httptest.NewRequest(http.MethodGet, "/api/tutorials/tut_export/export?format=csv", nil)
	rec = httptest.NewRecorder()
	h.ItemHandler(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRepoNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/acme/go-course.git", "go-course"},
		{"https://github.com/acme/go-course", "go-course"},
		{"https://github.com/acme/go-course/", "go-course"},
		{"git@host:course.git", "git@host:course"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, repoNameFromURL(tt.url), tt.url)
	}
}
