package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
	"github.com/lectorhq/lector/internal/storage/badger"
)

func newIssueHandler(t *testing.T) (*IssueHandler, interfaces.StorageManager) {
	t.Helper()

	cfg := &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "data")}
	storage, err := badger.NewManager(arbor.NewLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	return NewIssueHandler(storage, arbor.NewLogger()), storage
}

func TestResolveIssue(t *testing.T) {
	h, storage := newIssueHandler(t)
	ctx := context.Background()

	issue := &models.Issue{
		ID: "iss_r", TutorialID: "tut_x", ChapterID: "ch_x",
		Category: models.IssueCategoryQuality, Severity: models.SeverityHigh, Priority: 1,
		Description: "broken example",
	}
	require.NoError(t, storage.IssueStorage().SaveIssue(ctx, issue))

	req := httptest.NewRequest(http.MethodPost, "/api/issues/iss_r/resolve", nil)
	rec := httptest.NewRecorder()
	h.ItemHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := storage.IssueStorage().GetIssue(ctx, "iss_r")
	require.NoError(t, err)
	require.True(t, got.Resolved)
	require.NotNil(t, got.ResolvedAt)
}

func TestResolveIssueMissing(t *testing.T) {
	h, _ := newIssueHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/issues/iss_nope/resolve", nil)
	rec := httptest.NewRecorder()
	h.ItemHandler(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetIssueWrongMethod(t *testing.T) {
	h, _ := newIssueHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/issues/iss_r", nil)
	rec := httptest.NewRecorder()
	h.ItemHandler(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetChapterFullBody(t *testing.T) {
	h, storage := newIssueHandler(t)
	ctx := context.Background()

	chapter := &models.Chapter{
		ID: "ch_full", TutorialID: "tut_x", OrderIndex: 0,
		FilePath: "docs/01.md", Title: "Intro",
		Content: "# Intro\n\nfull body text",
		Status:  models.ChapterStatusCompleted,
	}
	require.NoError(t, storage.ChapterStorage().SaveChapter(ctx, chapter))

	req := httptest.NewRequest(http.MethodGet, "/api/chapters/ch_full", nil)
	rec := httptest.NewRecorder()
	h.ChapterHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "full body text")
}
