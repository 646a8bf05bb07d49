package card

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	profilehandler "github.com/Urbandonment/trophy-forge/internal/handler/profile"
	cardmodel "github.com/Urbandonment/trophy-forge/internal/model/card"
	profilemodel "github.com/Urbandonment/trophy-forge/internal/model/profile"
	"github.com/Urbandonment/trophy-forge/internal/psn"
	"github.com/Urbandonment/trophy-forge/pkg/utils"
)

// ProfileService resolves usernames into snapshots.
type ProfileService interface {
	Fetch(ctx context.Context, username string) (profilemodel.Snapshot, error)
}

// CaptureService flattens a snapshot into a raster artifact.
type CaptureService interface {
	Capture(ctx context.Context, snapshot profilemodel.Snapshot, opts cardmodel.CaptureOptions, report func(cardmodel.Progress)) (cardmodel.Artifact, error)
}

// Handler serves trophy card exports.
type Handler struct {
	profiles ProfileService
	captures CaptureService
}

// New creates the card handler.
func New(profiles ProfileService, captures CaptureService) *Handler {
	return &Handler{profiles: profiles, captures: captures}
}

// RegisterRoutes mounts the card routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/trophy-card/{username}", func(cardRouter chi.Router) {
		cardRouter.Get("/", h.handleDownload)
		cardRouter.Get("/live", h.handleLive)
	})
}

// handleDownload renders the card and streams it back as an attachment.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := profilemodel.ValidateOnlineID(username); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.profiles.Fetch(r.Context(), username)
	if err != nil {
		utils.RespondError(w, profilehandler.StatusForOutcome(psn.OutcomeOf(err)), err.Error())
		return
	}

	artifact, err := h.captures.Capture(r.Context(), snapshot, captureOptions(r), nil)
	if err != nil {
		log.Printf("[card] capture for %s failed: %v", username, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to render the trophy card")
		return
	}

	w.Header().Set("Content-Type", artifact.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	if _, err := w.Write(artifact.Data); err != nil {
		log.Printf("[card] failed to stream artifact: %v", err)
	}
}

// captureOptions reads the optional geometry overrides off the query string.
func captureOptions(r *http.Request) cardmodel.CaptureOptions {
	var opts cardmodel.CaptureOptions
	if raw := r.URL.Query().Get("width"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 && val <= 2048 {
			opts.Width = val
		}
	}
	if raw := r.URL.Query().Get("height"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 && val <= 2048 {
			opts.Height = val
		}
	}
	return opts
}
