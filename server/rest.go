package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/markusbegerow/feeddeck/pkg/deck"
	"github.com/markusbegerow/feeddeck/pkg/notify"
)

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.cfg.Version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// listProjectsHandler returns all projects with their feed lists
func (s *Server) listProjectsHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, s.deck.Projects())
}

// createProjectHandler creates an empty project
func (s *Server) createProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if err := s.deck.CreateProject(req.Name); err != nil {
		renderDeckError(w, r, err)
		return
	}
	renderJSON(w, r, http.StatusCreated, map[string]string{"name": req.Name})
}

// deleteProjectHandler deletes a project wholesale
func (s *Server) deleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.deck.DeleteProject(name); err != nil {
		renderDeckError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// addFeedHandler appends a feed URL to a project
func (s *Server) addFeedHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if err := s.deck.AddFeed(r.PathValue("name"), req.URL); err != nil {
		renderDeckError(w, r, err)
		return
	}
	renderJSON(w, r, http.StatusCreated, map[string]string{"url": req.URL})
}

// removeFeedHandler removes a feed URL from a project
func (s *Server) removeFeedHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if err := s.deck.RemoveFeed(r.PathValue("name"), req.URL); err != nil {
		renderDeckError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// moveFeedHandler reorders a feed within a project
func (s *Server) moveFeedHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index     int    `json:"index"`
		Direction string `json:"direction"` // "up" or "down"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.Direction != "up" && req.Direction != "down" {
		renderError(w, r, fmt.Errorf("direction must be up or down"), http.StatusBadRequest)
		return
	}

	if err := s.deck.MoveFeed(r.PathValue("name"), req.Index, req.Direction == "up"); err != nil {
		renderDeckError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// refreshHandler runs an ingestion pass over the project's feeds, or over all
// projects when ?all=true
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	scope := deck.Scope{
		Project:     r.PathValue("name"),
		AllProjects: r.URL.Query().Get("all") == "true",
		Filter:      r.URL.Query().Get("filter"),
	}

	res, err := s.deck.Refresh(r.Context(), scope)
	if err != nil {
		renderDeckError(w, r, err)
		return
	}
	renderJSON(w, r, http.StatusOK, res)
}

// markReadHandler sets the read flag for an article
func (s *Server) markReadHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Project string `json:"project"`
		FeedURL string `json:"feed_url"`
		Link    string `json:"link"`
		Title   string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.Link == "" {
		renderError(w, r, fmt.Errorf("link is required"), http.StatusBadRequest)
		return
	}

	if err := s.deck.MarkRead(req.Project, req.FeedURL, req.Link, req.Title); err != nil {
		renderDeckError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// discoverHandler probes a website for feed candidates
func (s *Server) discoverHandler(w http.ResponseWriter, r *http.Request) {
	siteURL := r.URL.Query().Get("url")
	if siteURL == "" {
		renderError(w, r, fmt.Errorf("url parameter is required"), http.StatusBadRequest)
		return
	}

	candidates := s.discoverer.Discover(r.Context(), siteURL)
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"feeds": candidates})
}

// webhookHandler fires a webhook send for an article; failures surface as a
// transient error for the user to retry
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookURL == "" {
		renderError(w, r, fmt.Errorf("webhook URL not configured"), http.StatusBadRequest)
		return
	}

	var req struct {
		Project string `json:"project"`
		FeedURL string `json:"feed_url"`
		Title   string `json:"title"`
		Link    string `json:"link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	payload := notify.Payload{
		Project:   req.Project,
		FeedURL:   req.FeedURL,
		Title:     req.Title,
		Link:      req.Link,
		Timestamp: time.Now().UTC(),
	}
	if err := s.webhook.Send(r.Context(), s.cfg.WebhookURL, payload); err != nil {
		log.Printf("[WARN] webhook send failed: %v", err)
		renderError(w, r, err, http.StatusBadGateway)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]string{"status": "sent"})
}

// notificationsHandler returns the bounded in-memory history
func (s *Server) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, s.deck.Notifications())
}

// clearNotificationsHandler empties the history
func (s *Server) clearNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	s.deck.ClearNotifications()
	w.WriteHeader(http.StatusNoContent)
}

// languagesHandler returns the static translation table
func (s *Server) languagesHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, s.languages.Languages())
}

// renderDeckError maps deck errors to HTTP status codes
func renderDeckError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, deck.ErrProjectNotFound), errors.Is(err, deck.ErrFeedNotFound):
		code = http.StatusNotFound
	case errors.Is(err, deck.ErrProjectExists), errors.Is(err, deck.ErrFeedExists),
		errors.Is(err, deck.ErrRefreshInFlight):
		code = http.StatusConflict
	}
	if code == http.StatusInternalServerError {
		log.Printf("[ERROR] request failed: %v", err)
	}
	renderError(w, r, err, code)
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
