package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/interfaces"
)

// IssueHandler serves individual issue and chapter routes
type IssueHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewIssueHandler(storage interfaces.StorageManager, logger arbor.ILogger) *IssueHandler {
	return &IssueHandler{
		storage: storage,
		logger:  logger,
	}
}

// ItemHandler routes /api/issues/{id} and /api/issues/{id}/resolve
func (h *IssueHandler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/issues/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		WriteError(w, http.StatusBadRequest, "Issue ID required")
		return
	}
	id := parts[0]

	if len(parts) == 2 && parts[1] == "resolve" {
		h.resolveIssue(w, r, id)
		return
	}
	if len(parts) == 1 {
		h.getIssue(w, r, id)
		return
	}

	WriteError(w, http.StatusNotFound, "Unknown issue resource")
}

func (h *IssueHandler) getIssue(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	issue, err := h.storage.IssueStorage().GetIssue(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Issue not found")
		return
	}
	WriteJSON(w, http.StatusOK, issue)
}

// resolveIssue marks an issue as addressed (POST or PATCH /api/issues/{id}/resolve)
func (h *IssueHandler) resolveIssue(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost && r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.storage.IssueStorage().MarkResolved(r.Context(), id); err != nil {
		WriteError(w, http.StatusNotFound, "Issue not found")
		return
	}

	h.logger.Debug().Str("issue_id", id).Msg("Issue resolved")
	WriteSuccess(w, "Issue resolved")
}

// ChapterHandler serves /api/chapters/{id} with the full chapter body
func (h *IssueHandler) ChapterHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/chapters/"), "/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Chapter ID required")
		return
	}

	chapter, err := h.storage.ChapterStorage().GetChapter(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Chapter not found")
		return
	}
	WriteJSON(w, http.StatusOK, chapter)
}
