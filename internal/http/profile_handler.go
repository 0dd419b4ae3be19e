package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/roombooking/internal/application"
)

type profileService interface {
	GetProfile(ctx context.Context, principal application.Principal) (application.Profile, error)
	UpdateProfile(ctx context.Context, principal application.Principal, input application.ProfileInput) (application.Profile, error)
}

type ProfileHandler struct {
	service   profileService
	responder responder
	logger    *slog.Logger
}

func NewProfileHandler(service profileService, logger *slog.Logger) *ProfileHandler {
	base := defaultLogger(logger)
	return &ProfileHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ProfileHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ProfileHandler", operation, attrs...)
}

// Get serves the principal's profile. A profile that was never saved comes
// back empty with the display name falling back to the account email.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Get", "user_id", principal.UserID).ErrorContext(r.Context(), "failed to get profile", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileDTO(profile, principal))
}

// Update saves the principal's display attributes.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	var form profileForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode profile request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "user_id", principal.UserID)

	profile, err := h.service.UpdateProfile(r.Context(), principal, application.ProfileInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		AvatarURL: form.AvatarURL,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update profile", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "profile updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileDTO(profile, principal))
}

type profileForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

type profileDTO struct {
	ID          string  `json:"id"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	AvatarURL   *string `json:"avatar_url"`
	DisplayName string  `json:"display_name"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

func toProfileDTO(profile application.Profile, principal application.Principal) profileDTO {
	dto := profileDTO{
		ID:          profile.ID,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		AvatarURL:   profile.AvatarURL,
		DisplayName: application.DisplayName(profile, principal),
	}
	if !profile.UpdatedAt.IsZero() {
		dto.UpdatedAt = profile.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}
