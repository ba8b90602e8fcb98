package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Tutorials
	mux.HandleFunc("/api/tutorials", s.app.TutorialHandler.CollectionHandler)    // GET (list), POST (create)
	mux.HandleFunc("/api/tutorials/stats", s.app.TutorialHandler.StatsHandler)   // GET - aggregate stats
	mux.HandleFunc("/api/tutorials/", s.app.TutorialHandler.ItemHandler)         // /{id} and sub-resources

	// API routes - Issues and chapters
	mux.HandleFunc("/api/issues/", s.app.IssueHandler.ItemHandler)     // GET /{id}, POST /{id}/resolve
	mux.HandleFunc("/api/chapters/", s.app.IssueHandler.ChapterHandler) // GET /{id} with full body

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
