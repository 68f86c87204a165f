package v1

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/tripprefs/internal/profile"
	"github.com/hrygo/tripprefs/server/auth"
	"github.com/hrygo/tripprefs/server/internal/observability"
	"github.com/hrygo/tripprefs/server/middleware"
	"github.com/hrygo/tripprefs/server/service/preference"
)

type APIV1Service struct {
	Profile           *profile.Profile
	PreferenceService preference.Service

	authenticator *auth.Authenticator
	rateLimiter   *middleware.RateLimiter
	validate      *validator.Validate
}

func NewAPIV1Service(profile *profile.Profile, preferenceService preference.Service) *APIV1Service {
	return &APIV1Service{
		Profile:           profile,
		PreferenceService: preferenceService,
		authenticator:     auth.NewAuthenticator(profile.Secret),
		rateLimiter:       middleware.NewRateLimiter(profile.RateLimitPerSecond, profile.RateLimitBurst),
		validate:          validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes registers the JSON API with the given Echo instance.
// Authentication runs first so the logger and the rate limiter see the caller.
// Anonymous callers are limited by the address echoServer.IPExtractor reports.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	s.rateLimiter.WithIPExtractor(echoServer.IPExtractor)
	g := echoServer.Group("/api/v1",
		s.authenticator.Middleware(),
		observability.Middleware(slog.Default()),
		s.rateLimiter.Middleware(),
	)

	g.GET("/preferences", s.ListPreferences)

	me := g.Group("/users/me")
	me.GET("/preferences", s.GetUserPreferences)
	me.PUT("/preferences", s.SaveUserPreferences)
	me.GET("/preference-profile", s.GetUserPreferenceProfile)
	me.GET("/onboarding", s.GetOnboardingStatus)
}
