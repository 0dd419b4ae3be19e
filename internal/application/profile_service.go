package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// ProfileRepository captures the persistence interactions for profiles.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (persistence.Profile, error)
	UpsertProfile(ctx context.Context, profile persistence.Profile) error
}

// ProfileService reads and updates the display attributes attached to a user.
type ProfileService struct {
	profiles ProfileRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewProfileService constructs a profile service with the provided dependencies.
func NewProfileService(profiles ProfileRepository, now func() time.Time) *ProfileService {
	return NewProfileServiceWithLogger(profiles, now, nil)
}

// NewProfileServiceWithLogger constructs a profile service with a specified logger.
func NewProfileServiceWithLogger(profiles ProfileRepository, now func() time.Time, logger *slog.Logger) *ProfileService {
	if now == nil {
		now = time.Now
	}
	return &ProfileService{profiles: profiles, now: now, logger: defaultLogger(logger)}
}

func (s *ProfileService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProfileService", operation, attrs...)
}

// GetProfile returns the principal's profile. An account that never saved one
// yields an empty profile rather than an error; that is the normal state for
// new users.
func (s *ProfileService) GetProfile(ctx context.Context, principal Principal) (Profile, error) {
	if s == nil || s.profiles == nil {
		return Profile{}, fmt.Errorf("profile repository not configured")
	}

	record, err := s.profiles.GetProfile(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Profile{ID: principal.UserID}, nil
		}
		err = mapRepoError(err)
		s.loggerWith(ctx, "GetProfile", "user_id", principal.UserID).ErrorContext(ctx, "failed to load profile", "error", err, "error_kind", ErrorKind(err))
		return Profile{}, err
	}
	return toApplicationProfile(record), nil
}

// UpdateProfile stores the principal's display attributes, stamping the
// last-updated instant.
func (s *ProfileService) UpdateProfile(ctx context.Context, principal Principal, input ProfileInput) (profile Profile, err error) {
	if s == nil || s.profiles == nil {
		err = fmt.Errorf("profile repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateProfile", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update profile", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "profile updated")
	}()

	vErr := &ValidationError{}
	avatarURL := strings.TrimSpace(input.AvatarURL)
	if avatarURL != "" {
		if _, parseErr := url.ParseRequestURI(avatarURL); parseErr != nil {
			vErr.add("avatar_url", "must be a valid URL")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record := persistence.Profile{
		ID:        principal.UserID,
		FirstName: optionalString(input.FirstName),
		LastName:  optionalString(input.LastName),
		AvatarURL: optionalString(avatarURL),
		UpdatedAt: s.now(),
	}

	if err = s.profiles.UpsertProfile(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}

	profile = toApplicationProfile(record)
	return
}

// DisplayName assembles the organizer prefill from a profile, falling back to
// the account email when no name was saved.
func DisplayName(profile Profile, principal Principal) string {
	parts := make([]string, 0, 2)
	if profile.FirstName != nil && strings.TrimSpace(*profile.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*profile.FirstName))
	}
	if profile.LastName != nil && strings.TrimSpace(*profile.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*profile.LastName))
	}
	if len(parts) == 0 {
		return principal.Email
	}
	return strings.Join(parts, " ")
}

func toApplicationProfile(record persistence.Profile) Profile {
	return Profile{
		ID:        record.ID,
		FirstName: cloneString(record.FirstName),
		LastName:  cloneString(record.LastName),
		AvatarURL: cloneString(record.AvatarURL),
		UpdatedAt: record.UpdatedAt,
	}
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
