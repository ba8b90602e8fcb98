package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/models"
	"github.com/lectorhq/lector/internal/services/report"
	"github.com/lectorhq/lector/internal/services/reviewer"
)

// TutorialHandler serves tutorial registration, evaluation and result routes
type TutorialHandler struct {
	storage  interfaces.StorageManager
	repos    interfaces.RepoService
	reviewer *reviewer.Service
	reports  *report.Generator
	events   interfaces.EventService
	validate *validator.Validate
	logger   arbor.ILogger
}

func NewTutorialHandler(
	storage interfaces.StorageManager,
	repos interfaces.RepoService,
	reviewerService *reviewer.Service,
	reports *report.Generator,
	events interfaces.EventService,
	logger arbor.ILogger,
) *TutorialHandler {
	return &TutorialHandler{
		storage:  storage,
		repos:    repos,
		reviewer: reviewerService,
		reports:  reports,
		events:   events,
		validate: validator.New(),
		logger:   logger,
	}
}

type createTutorialRequest struct {
	Name    string `json:"name"`
	RepoURL string `json:"repo_url" validate:"required,url"`
	Branch  string `json:"branch"`
}

// CreateHandler registers a new tutorial (POST /api/tutorials)
func (h *TutorialHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createTutorialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "repo_url must be a valid URL")
		return
	}

	if req.Branch == "" {
		req.Branch = "main"
	}
	if req.Name == "" {
		req.Name = repoNameFromURL(req.RepoURL)
	}

	tutorial := &models.Tutorial{
		ID:      common.NewTutorialID(),
		Name:    req.Name,
		RepoURL: req.RepoURL,
		Branch:  req.Branch,
		Status:  models.TutorialStatusPending,
	}

	if err := h.storage.TutorialStorage().SaveTutorial(r.Context(), tutorial); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create tutorial")
		WriteError(w, http.StatusInternalServerError, "Failed to create tutorial")
		return
	}

	h.logger.Info().
		Str("tutorial_id", tutorial.ID).
		Str("repo_url", tutorial.RepoURL).
		Msg("Tutorial registered")

	WriteJSON(w, http.StatusCreated, tutorial)
}

// ListHandler returns registered tutorials (GET /api/tutorials)
func (h *TutorialHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	skip, _ := strconv.Atoi(query.Get("skip"))
	if skip < 0 {
		skip = 0
	}

	tutorials, err := h.storage.TutorialStorage().ListTutorials(r.Context(), &interfaces.ListOptions{
		Limit: limit,
		Skip:  skip,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list tutorials")
		WriteError(w, http.StatusInternalServerError, "Failed to list tutorials")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tutorials": tutorials,
		"count":     len(tutorials),
	})
}

// CollectionHandler dispatches /api/tutorials by method
func (h *TutorialHandler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.CreateHandler(w, r)
	case http.MethodGet:
		h.ListHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// StatsHandler summarizes all tutorials (GET /api/tutorials/stats)
func (h *TutorialHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tutorials, err := h.storage.TutorialStorage().ListTutorials(r.Context(), nil)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	stats := models.TutorialStats{
		TotalTutorials: len(tutorials),
		ByStatus:       make(map[string]int),
	}
	for _, t := range tutorials {
		stats.ByStatus[string(t.Status)]++
		stats.TotalChapters += t.ChapterCount
		stats.TotalIssues += t.HighIssues + t.MediumIssues + t.LowIssues
	}

	WriteJSON(w, http.StatusOK, stats)
}

// ItemHandler routes /api/tutorials/{id} and its sub-resources
func (h *TutorialHandler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tutorials/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		WriteError(w, http.StatusBadRequest, "Tutorial ID required")
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getTutorial(w, r, id)
		case http.MethodDelete:
			h.deleteTutorial(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "evaluate":
		h.evaluateTutorial(w, r, id)
	case "evaluate-stream":
		h.streamEvaluation(w, r, id)
	case "chapters":
		h.listChapters(w, r, id)
	case "issues":
		h.listIssues(w, r, id)
	case "snapshots":
		h.listSnapshots(w, r, id)
	case "export":
		h.exportReport(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Unknown tutorial resource")
	}
}

func (h *TutorialHandler) getTutorial(w http.ResponseWriter, r *http.Request, id string) {
	tutorial, err := h.storage.TutorialStorage().GetTutorial(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Tutorial not found")
		return
	}
	WriteJSON(w, http.StatusOK, tutorial)
}

// deleteTutorial removes the tutorial with its chapters, issues and clone
func (h *TutorialHandler) deleteTutorial(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	tutorial, err := h.storage.TutorialStorage().GetTutorial(ctx, id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Tutorial not found")
		return
	}
	if h.reviewer.IsRunning(id) {
		WriteError(w, http.StatusConflict, "Evaluation in progress")
		return
	}

	if err := h.storage.IssueStorage().DeleteIssuesByTutorial(ctx, id); err != nil {
		h.logger.Warn().Str("tutorial_id", id).Err(err).Msg("Failed to delete tutorial issues")
	}
	if err := h.storage.ChapterStorage().DeleteChaptersByTutorial(ctx, id); err != nil {
		h.logger.Warn().Str("tutorial_id", id).Err(err).Msg("Failed to delete tutorial chapters")
	}
	if err := h.storage.TutorialStorage().DeleteTutorial(ctx, id); err != nil {
		h.logger.Error().Str("tutorial_id", id).Err(err).Msg("Failed to delete tutorial")
		WriteError(w, http.StatusInternalServerError, "Failed to delete tutorial")
		return
	}
	if err := h.repos.Remove(tutorial.RepoURL); err != nil {
		h.logger.Warn().Str("repo_url", tutorial.RepoURL).Err(err).Msg("Failed to remove clone")
	}

	if h.events != nil {
		h.events.Publish(ctx, interfaces.Event{Type: interfaces.EventTutorialDeleted, Payload: tutorial})
	}

	WriteSuccess(w, "Tutorial deleted")
}

// evaluateTutorial runs a synchronous evaluation (POST .../evaluate)
func (h *TutorialHandler) evaluateTutorial(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	tutorial, err := h.reviewer.Evaluate(r.Context(), id)
	if err != nil {
		if errors.Is(err, reviewer.ErrEvaluationRunning) {
			WriteError(w, http.StatusConflict, "Evaluation already running")
			return
		}
		h.logger.Error().Str("tutorial_id", id).Err(err).Msg("Evaluation failed")
		WriteError(w, http.StatusInternalServerError, "Evaluation failed")
		return
	}

	WriteJSON(w, http.StatusOK, tutorial)
}

func (h *TutorialHandler) listChapters(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	chapters, err := h.storage.ChapterStorage().ListChapters(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list chapters")
		return
	}

	// Chapter bodies can be large; the list view carries metadata only
	for _, c := range chapters {
		c.Content = ""
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"chapters": chapters,
		"count":    len(chapters),
	})
}

func (h *TutorialHandler) listIssues(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()
	issues, err := h.storage.IssueStorage().ListIssues(r.Context(), id, query.Get("chapter_id"), query.Get("severity"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list issues")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"issues": issues,
		"count":  len(issues),
	})
}

func (h *TutorialHandler) listSnapshots(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshots, err := h.storage.TutorialStorage().ListSnapshots(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// exportReport renders the evaluation report (GET .../export?format=md|pdf)
func (h *TutorialHandler) exportReport(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "md"
	}

	switch format {
	case "md":
		md, err := h.reports.Markdown(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, "Failed to generate report")
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=\"report-"+id+".md\"")
		w.Write([]byte(md))
	case "pdf":
		pdf, err := h.reports.PDF(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, "Failed to generate report")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename=\"report-"+id+".pdf\"")
		w.Write(pdf)
	default:
		WriteError(w, http.StatusBadRequest, "Unsupported format, use md or pdf")
	}
}

// streamEvaluation starts an evaluation and streams progress over SSE
// (GET .../evaluate-stream). Client disconnect detaches the stream; the
// evaluation itself keeps running.
func (h *TutorialHandler) streamEvaluation(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	run, err := h.reviewer.EvaluateStream(id)
	if err != nil {
		if errors.Is(err, reviewer.ErrEvaluationRunning) {
			WriteError(w, http.StatusConflict, "Evaluation already running")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to start evaluation")
		return
	}
	defer run.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	heartbeat := time.NewTicker(10 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			writeSSE(w, models.ProgressEvent{
				Type:       models.ProgressTypeHeartbeat,
				TutorialID: id,
				Timestamp:  time.Now(),
			})
			flusher.Flush()
		case event, open := <-run.Events():
			if !open {
				return
			}
			writeSSE(w, event)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event models.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	w.Write([]byte("event: " + event.Type + "\n"))
	w.Write([]byte("data: " + string(data) + "\n\n"))
}

func repoNameFromURL(repoURL string) string {
	name := strings.TrimSuffix(repoURL, "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, ".git")
}
