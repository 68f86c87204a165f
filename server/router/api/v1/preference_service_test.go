package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/tripprefs/internal/profile"
	"github.com/hrygo/tripprefs/server/auth"
	apperrors "github.com/hrygo/tripprefs/server/internal/errors"
	"github.com/hrygo/tripprefs/server/service/preference"
	"github.com/hrygo/tripprefs/store"
)

const testSecret = "test-secret"

// MockPreferenceService records the user id each call was made for.
type MockPreferenceService struct {
	lastUserID  int32
	lastIDs     []int32
	saveCalls   int
	saveResult  *preference.SaveResult
	selectedIDs []int32
	profile     *preference.StoredProfile
	needs       bool
	catalog     []*store.Preference
	err         error
}

func (m *MockPreferenceService) SavePreferences(_ context.Context, userID int32, selectedIDs []int32) *preference.SaveResult {
	m.saveCalls++
	m.lastUserID = userID
	m.lastIDs = selectedIDs
	if userID == 0 {
		return &preference.SaveResult{Code: apperrors.ErrCodeUnauthenticated, Message: "Not authenticated."}
	}
	return m.saveResult
}

func (m *MockPreferenceService) NeedsOnboarding(_ context.Context, userID int32) (bool, error) {
	m.lastUserID = userID
	return m.needs, m.err
}

func (m *MockPreferenceService) GetUserPreferenceIDs(_ context.Context, userID int32) ([]int32, error) {
	m.lastUserID = userID
	return m.selectedIDs, m.err
}

func (m *MockPreferenceService) GetUserPreferenceProfile(_ context.Context, userID int32) (*preference.StoredProfile, error) {
	m.lastUserID = userID
	return m.profile, m.err
}

func (m *MockPreferenceService) ListActivePreferences(_ context.Context) ([]*store.Preference, error) {
	return m.catalog, m.err
}

func newTestServer(t *testing.T, svc preference.Service) *echo.Echo {
	t.Helper()
	e := echo.New()
	p := &profile.Profile{Mode: "dev", Secret: testSecret, RateLimitPerSecond: 1000, RateLimitBurst: 1000}
	NewAPIV1Service(p, svc).RegisterRoutes(e)
	return e
}

func doRequest(t *testing.T, e *echo.Echo, method, path string, userID int32, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != 0 {
		token, err := auth.GenerateAccessToken(userID, "tester", time.Now().Add(time.Hour), []byte(testSecret))
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListPreferences(t *testing.T) {
	svc := &MockPreferenceService{catalog: []*store.Preference{
		{ID: 3, Key: "activity.hiking", Label: "Hiking", Category: "activity", SortOrder: 1, Active: true},
		{ID: 1, Key: "tripType.beach", Label: "Beaches", Category: "tripType", SortOrder: 1, Active: true},
		{ID: 2, Key: "tripType.city", Label: "City Break", Category: "tripType", SortOrder: 2, Active: true},
	}}
	e := newTestServer(t, svc)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/preferences", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)

	response := &ListPreferencesResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), response))
	assert.Len(t, response.Preferences, 3)
	require.Len(t, response.Groups, 2)
	assert.Equal(t, "activity", response.Groups[0].Category)
	assert.Equal(t, "tripType", response.Groups[1].Category)
	assert.Equal(t, "tripType.city", response.Groups[1].Items[1].Key)
}

func TestSaveUserPreferences(t *testing.T) {
	svc := &MockPreferenceService{saveResult: &preference.SaveResult{Success: true, Message: "Preferences saved."}}
	e := newTestServer(t, svc)

	rec := doRequest(t, e, http.MethodPut, "/api/v1/users/me/preferences", 7, `{"selectedIds":[1,2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(7), svc.lastUserID)
	assert.Equal(t, []int32{1, 2}, svc.lastIDs)
	assert.JSONEq(t, `{"success":true,"message":"Preferences saved."}`, rec.Body.String())

	rec = doRequest(t, e, http.MethodPut, "/api/v1/users/me/preferences", 7, `{"selectedIds":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.lastIDs)
}

func TestSaveUserPreferencesFailures(t *testing.T) {
	tests := []struct {
		name       string
		userID     int32
		body       string
		result     *preference.SaveResult
		wantStatus int
		wantCode   apperrors.ErrorCode
		wantCalled bool
	}{
		{
			name:       "anonymous",
			userID:     0,
			body:       `{"selectedIds":[1]}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   apperrors.ErrCodeUnauthenticated,
			wantCalled: true,
		},
		{
			name:       "storage failure",
			userID:     7,
			body:       `{"selectedIds":[1]}`,
			result:     &preference.SaveResult{Code: apperrors.ErrCodeStorageFailure, Message: "failed to store selection"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.ErrCodeStorageFailure,
			wantCalled: true,
		},
		{
			name:       "malformed body",
			userID:     7,
			body:       `{"selectedIds":"beach"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeInvalidArgument,
		},
		{
			name:       "non positive id",
			userID:     7,
			body:       `{"selectedIds":[1,0]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockPreferenceService{saveResult: tt.result}
			e := newTestServer(t, svc)

			rec := doRequest(t, e, http.MethodPut, "/api/v1/users/me/preferences", tt.userID, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, svc.saveCalls > 0)

			body := map[string]any{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.wantCode), body["code"])
		})
	}
}

func TestGetUserPreferences(t *testing.T) {
	svc := &MockPreferenceService{selectedIDs: []int32{4, 2}}
	e := newTestServer(t, svc)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/users/me/preferences", 3, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(3), svc.lastUserID)
	assert.JSONEq(t, `{"selectedIds":[4,2]}`, rec.Body.String())

	svc.selectedIDs = nil
	rec = doRequest(t, e, http.MethodGet, "/api/v1/users/me/preferences", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(0), svc.lastUserID)
	assert.JSONEq(t, `{"selectedIds":[]}`, rec.Body.String())

	svc.err = apperrors.StorageFailure("failed to list selected preferences", errors.New("conn refused"))
	rec = doRequest(t, e, http.MethodGet, "/api/v1/users/me/preferences", 3, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "conn refused")
}

func TestGetUserPreferenceProfile(t *testing.T) {
	svc := &MockPreferenceService{}
	e := newTestServer(t, svc)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/users/me/preference-profile", 3, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), string(apperrors.ErrCodeNotFound))

	svc.profile = &preference.StoredProfile{
		Summary: &preference.ProfileSummary{
			SelectedIDs: []int32{1},
			ByCategory:  map[string][]string{"tripType": {"tripType.beach"}},
			FlatKeys:    []string{"tripType.beach"},
			FlatLabels:  []string{"Beaches"},
			GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			Version:     preference.SummaryVersion,
		},
		Version:   preference.SummaryVersion,
		UpdatedTs: 1773480600,
	}
	rec = doRequest(t, e, http.MethodGet, "/api/v1/users/me/preference-profile", 3, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"summary": {
			"selectedIds": [1],
			"byCategory": {"tripType": ["tripType.beach"]},
			"flatKeys": ["tripType.beach"],
			"flatLabels": ["Beaches"],
			"generatedAt": "2026-03-14T09:30:00Z",
			"version": "1"
		},
		"version": "1",
		"updatedTs": 1773480600
	}`, rec.Body.String())
}

func TestGetOnboardingStatus(t *testing.T) {
	svc := &MockPreferenceService{needs: true}
	e := newTestServer(t, svc)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/users/me/onboarding", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"needsOnboarding":true}`, rec.Body.String())

	svc.needs = false
	rec = doRequest(t, e, http.MethodGet, "/api/v1/users/me/onboarding", 9, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(9), svc.lastUserID)
	assert.JSONEq(t, `{"needsOnboarding":false}`, rec.Body.String())
}

func TestStatusFromCode(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFromCode(apperrors.ErrCodeUnauthenticated))
	assert.Equal(t, http.StatusBadRequest, statusFromCode(apperrors.ErrCodeInvalidArgument))
	assert.Equal(t, http.StatusNotFound, statusFromCode(apperrors.ErrCodeNotFound))
	assert.Equal(t, http.StatusTooManyRequests, statusFromCode(apperrors.ErrCodeRateLimitExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFromCode(apperrors.ErrCodeStorageFailure))
	assert.Equal(t, http.StatusInternalServerError, statusFromCode(""))
}
