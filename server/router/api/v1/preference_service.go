package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/tripprefs/server/auth"
	apperrors "github.com/hrygo/tripprefs/server/internal/errors"
	"github.com/hrygo/tripprefs/server/service/preference"
	"github.com/hrygo/tripprefs/store"
)

type Preference struct {
	ID          int32   `json:"id"`
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Category    string  `json:"category"`
	Description *string `json:"description,omitempty"`
	SortOrder   int32   `json:"sortOrder"`
}

type PreferenceGroup struct {
	Category string        `json:"category"`
	Items    []*Preference `json:"items"`
}

type ListPreferencesResponse struct {
	Preferences []*Preference      `json:"preferences"`
	Groups      []*PreferenceGroup `json:"groups"`
}

type UserPreferencesResponse struct {
	SelectedIDs []int32 `json:"selectedIds"`
}

type SavePreferencesRequest struct {
	SelectedIDs []int32 `json:"selectedIds" validate:"max=256,dive,gt=0"`
}

type OnboardingResponse struct {
	NeedsOnboarding bool `json:"needsOnboarding"`
}

type ErrorResponse struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// ListPreferences returns the active catalog, flat and grouped by category.
func (s *APIV1Service) ListPreferences(c echo.Context) error {
	list, err := s.PreferenceService.ListActivePreferences(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	response := &ListPreferencesResponse{
		Preferences: convertPreferencesFromStore(list),
		Groups:      []*PreferenceGroup{},
	}
	for _, group := range preference.GroupByCategory(list) {
		response.Groups = append(response.Groups, &PreferenceGroup{
			Category: group.Category,
			Items:    convertPreferencesFromStore(group.Items),
		})
	}
	return c.JSON(http.StatusOK, response)
}

// GetUserPreferences returns the caller's selected ids. Anonymous callers get an empty list.
func (s *APIV1Service) GetUserPreferences(c echo.Context) error {
	ctx := c.Request().Context()
	ids, err := s.PreferenceService.GetUserPreferenceIDs(ctx, auth.GetUserID(ctx))
	if err != nil {
		return writeError(c, err)
	}
	if ids == nil {
		ids = []int32{}
	}
	return c.JSON(http.StatusOK, &UserPreferencesResponse{SelectedIDs: ids})
}

// SaveUserPreferences replaces the caller's selection.
func (s *APIV1Service) SaveUserPreferences(c echo.Context) error {
	request := &SavePreferencesRequest{}
	if err := c.Bind(request); err != nil {
		return writeError(c, apperrors.InvalidArgument("malformed request body"))
	}
	if err := s.validate.Struct(request); err != nil {
		slog.Debug("rejected save request", slog.String("error", err.Error()))
		return writeError(c, apperrors.InvalidArgument("selectedIds must hold at most 256 positive ids"))
	}

	ctx := c.Request().Context()
	result := s.PreferenceService.SavePreferences(ctx, auth.GetUserID(ctx), request.SelectedIDs)
	if !result.Success {
		return c.JSON(statusFromCode(result.Code), result)
	}
	return c.JSON(http.StatusOK, result)
}

// GetUserPreferenceProfile returns the caller's cached profile, or 404 when none was built yet.
func (s *APIV1Service) GetUserPreferenceProfile(c echo.Context) error {
	ctx := c.Request().Context()
	profile, err := s.PreferenceService.GetUserPreferenceProfile(ctx, auth.GetUserID(ctx))
	if err != nil {
		return writeError(c, err)
	}
	if profile == nil {
		return writeError(c, apperrors.NotFound("preference profile not found"))
	}
	return c.JSON(http.StatusOK, profile)
}

// GetOnboardingStatus reports whether the caller still has to pick preferences.
func (s *APIV1Service) GetOnboardingStatus(c echo.Context) error {
	ctx := c.Request().Context()
	needs, err := s.PreferenceService.NeedsOnboarding(ctx, auth.GetUserID(ctx))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, &OnboardingResponse{NeedsOnboarding: needs})
}

func convertPreferencesFromStore(list []*store.Preference) []*Preference {
	preferences := make([]*Preference, 0, len(list))
	for _, p := range list {
		preferences = append(preferences, &Preference{
			ID:          p.ID,
			Key:         p.Key,
			Label:       p.Label,
			Category:    p.Category,
			Description: p.Description,
			SortOrder:   p.SortOrder,
		})
	}
	return preferences
}

func writeError(c echo.Context, err error) error {
	code := apperrors.GetCodeFromError(err, apperrors.ErrCodeStorageFailure)
	status := statusFromCode(code)

	// Storage causes stay in the log.
	message := http.StatusText(status)
	var e *apperrors.Error
	if errors.As(err, &e) && code != apperrors.ErrCodeStorageFailure {
		message = e.Message
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("path", c.Path()),
			slog.String("code", string(code)),
			slog.String("error", err.Error()),
		)
	}
	return c.JSON(status, &ErrorResponse{Code: code, Message: message})
}

func statusFromCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
