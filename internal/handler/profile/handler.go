package profile

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	profilemodel "github.com/Urbandonment/trophy-forge/internal/model/profile"
	"github.com/Urbandonment/trophy-forge/internal/psn"
	"github.com/Urbandonment/trophy-forge/pkg/utils"
)

// ProfileService resolves a username into a merged snapshot.
type ProfileService interface {
	Fetch(ctx context.Context, username string) (profilemodel.Snapshot, error)
}

// Handler serves the profile lookup endpoint.
type Handler struct {
	profiles ProfileService
}

// New creates the profile handler.
func New(profiles ProfileService) *Handler {
	return &Handler{profiles: profiles}
}

// RegisterRoutes mounts the profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/psn-profile/{username}", h.handleGetProfile)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	// Reject malformed usernames before any upstream traffic.
	if err := profilemodel.ValidateOnlineID(username); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.profiles.Fetch(r.Context(), username)
	if err != nil {
		status := StatusForOutcome(psn.OutcomeOf(err))
		if status == http.StatusInternalServerError {
			log.Printf("[profile] lookup for %s failed: %v", username, err)
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, snapshot)
}

// StatusForOutcome maps the fixed upstream outcome set onto HTTP statuses.
func StatusForOutcome(outcome psn.Outcome) int {
	switch outcome {
	case psn.OutcomeNotFound:
		return http.StatusNotFound
	case psn.OutcomePrivacyRestricted:
		return http.StatusNotAcceptable
	default:
		return http.StatusInternalServerError
	}
}
