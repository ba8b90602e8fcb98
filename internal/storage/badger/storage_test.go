package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lectorhq/lector/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func TestTutorialStoragePersistence(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewTutorialStorage(db, logger)
	ctx := context.Background()

	tutorial := &models.Tutorial{
		ID:      "tut-1",
		Name:    "go-basics",
		RepoURL: "https://example.com/go-basics.git",
		Branch:  "main",
		Status:  models.TutorialStatusPending,
	}
	if err := storage.SaveTutorial(ctx, tutorial); err != nil {
		t.Fatalf("Failed to save tutorial: %v", err)
	}

	got, err := storage.GetTutorial(ctx, "tut-1")
	if err != nil {
		t.Fatalf("Failed to get tutorial: %v", err)
	}
	if got.Name != "go-basics" {
		t.Errorf("name = %s, want go-basics", got.Name)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on save")
	}

	// Status transitions persist through upsert
	got.Status = models.TutorialStatusCompleted
	got.OverallScore = 82
	if err := storage.SaveTutorial(ctx, got); err != nil {
		t.Fatalf("Failed to update tutorial: %v", err)
	}
	updated, err := storage.GetTutorial(ctx, "tut-1")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.TutorialStatusCompleted || updated.OverallScore != 82 {
		t.Errorf("update not persisted: status=%s score=%d", updated.Status, updated.OverallScore)
	}

	if _, err := storage.GetTutorial(ctx, "missing"); err == nil {
		t.Error("expected error for missing tutorial")
	}

	count, err := storage.CountTutorials(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if err := storage.DeleteTutorial(ctx, "tut-1"); err != nil {
		t.Fatalf("Failed to delete tutorial: %v", err)
	}
	if _, err := storage.GetTutorial(ctx, "tut-1"); err == nil {
		t.Error("tutorial should be gone after delete")
	}
}

func TestChapterStorageByIndex(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewChapterStorage(db, logger)
	ctx := context.Background()

	for i, fp := range []string{"fp-0", "fp-1", "fp-2"} {
		chapter := &models.Chapter{
			ID:          "ch-" + fp,
			TutorialID:  "tut-1",
			OrderIndex:  i,
			FilePath:    "chapters/ch.md",
			Fingerprint: fp,
			Status:      models.ChapterStatusCompleted,
		}
		if err := storage.SaveChapter(ctx, chapter); err != nil {
			t.Fatalf("Failed to save chapter %d: %v", i, err)
		}
	}

	got, err := storage.GetChapterByIndex(ctx, "tut-1", 1)
	if err != nil {
		t.Fatalf("GetChapterByIndex failed: %v", err)
	}
	if got.Fingerprint != "fp-1" {
		t.Errorf("fingerprint = %s, want fp-1", got.Fingerprint)
	}

	if _, err := storage.GetChapterByIndex(ctx, "tut-1", 9); err != badgerhold.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing index, got %v", err)
	}

	chapters, err := storage.ListChapters(ctx, "tut-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chapters) != 3 {
		t.Fatalf("len = %d, want 3", len(chapters))
	}
	for i, ch := range chapters {
		if ch.OrderIndex != i {
			t.Errorf("chapters not sorted by order index: pos %d has index %d", i, ch.OrderIndex)
		}
	}

	if err := storage.DeleteChaptersByTutorial(ctx, "tut-1"); err != nil {
		t.Fatal(err)
	}
	count, err := storage.CountChapters(ctx, "tut-1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("count after delete = %d, want 0", count)
	}
}

func TestIssueStorageFiltersAndResolve(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewIssueStorage(db, logger)
	ctx := context.Background()

	issues := []*models.Issue{
		{ID: "iss-1", TutorialID: "tut-1", ChapterID: "ch-1", Category: models.IssueCategoryQuality, Severity: models.SeverityHigh, Priority: 1},
		{ID: "iss-2", TutorialID: "tut-1", ChapterID: "ch-1", Category: models.IssueCategoryReadability, Severity: models.SeverityLow, Priority: 4},
		{ID: "iss-3", TutorialID: "tut-1", ChapterID: "ch-2", Category: models.IssueCategoryDepth, Severity: models.SeverityMedium, Priority: 3},
	}
	if err := storage.SaveIssues(ctx, issues); err != nil {
		t.Fatalf("Failed to save issues: %v", err)
	}

	all, err := storage.ListIssues(ctx, "tut-1", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Priority > all[1].Priority || all[1].Priority > all[2].Priority {
		t.Error("issues not sorted by priority ascending")
	}

	byChapter, err := storage.ListIssues(ctx, "tut-1", "ch-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(byChapter) != 2 {
		t.Errorf("chapter filter: len = %d, want 2", len(byChapter))
	}

	bySeverity, err := storage.ListIssues(ctx, "tut-1", "", models.SeverityHigh)
	if err != nil {
		t.Fatal(err)
	}
	if len(bySeverity) != 1 || bySeverity[0].ID != "iss-1" {
		t.Errorf("severity filter returned wrong issues: %v", bySeverity)
	}

	if err := storage.MarkResolved(ctx, "iss-1"); err != nil {
		t.Fatalf("MarkResolved failed: %v", err)
	}
	resolved, err := storage.GetIssue(ctx, "iss-1")
	if err != nil {
		t.Fatal(err)
	}
	if !resolved.Resolved || resolved.ResolvedAt == nil {
		t.Error("issue not marked resolved")
	}
	if time.Since(*resolved.ResolvedAt) > time.Minute {
		t.Error("ResolvedAt not set to now")
	}

	counts, err := storage.CountIssuesBySeverity(ctx, "tut-1")
	if err != nil {
		t.Fatal(err)
	}
	if counts[models.SeverityHigh] != 1 || counts[models.SeverityMedium] != 1 || counts[models.SeverityLow] != 1 {
		t.Errorf("severity counts wrong: %v", counts)
	}
}

func TestSnapshotHistory(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewTutorialStorage(db, logger)
	ctx := context.Background()

	older := &models.EvaluationSnapshot{
		ID:         "run-1",
		TutorialID: "tut-1",
		Grade:      "C",
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	newer := &models.EvaluationSnapshot{
		ID:         "run-2",
		TutorialID: "tut-1",
		Grade:      "B",
		CreatedAt:  time.Now(),
	}
	if err := storage.SaveSnapshot(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := storage.SaveSnapshot(ctx, newer); err != nil {
		t.Fatal(err)
	}

	snapshots, err := storage.ListSnapshots(ctx, "tut-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("len = %d, want 2", len(snapshots))
	}
	if snapshots[0].ID != "run-2" {
		t.Error("snapshots should be newest first")
	}
}
