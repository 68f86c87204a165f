package preference

import "context"

// onboardingState is where a user stands with respect to preference setup.
//
//	unauthenticated              -> needs onboarding, no side effects
//	flag set                     -> completed (fast path, no further reads)
//	flag unset, selection found  -> legacy: heal the flag, then completed
//	flag unset, no selection     -> fresh: needs onboarding
type onboardingState int

const (
	onboardingUnauthenticated onboardingState = iota
	onboardingCompleted
	onboardingLegacy
	onboardingFresh
)

func (s onboardingState) String() string {
	switch s {
	case onboardingUnauthenticated:
		return "unauthenticated"
	case onboardingCompleted:
		return "completed"
	case onboardingLegacy:
		return "legacy"
	case onboardingFresh:
		return "fresh"
	default:
		return "unknown"
	}
}

// needsOnboarding is the answer reported to callers for a state.
func (s onboardingState) needsOnboarding() bool {
	return s == onboardingUnauthenticated || s == onboardingFresh
}

// needsHeal reports whether the completion flag must be repaired.
func (s onboardingState) needsHeal() bool {
	return s == onboardingLegacy
}

// onboardingProbe reads the two stores the state depends on.
type onboardingProbe interface {
	completionFlag(ctx context.Context, userID int32) (bool, error)
	hasSelection(ctx context.Context, userID int32) (bool, error)
}

// resolveOnboardingState walks the state machine, reading only what each step needs.
func resolveOnboardingState(ctx context.Context, probe onboardingProbe, userID int32) (onboardingState, error) {
	if userID == 0 {
		return onboardingUnauthenticated, nil
	}

	completed, err := probe.completionFlag(ctx, userID)
	if err != nil {
		return onboardingFresh, err
	}
	if completed {
		return onboardingCompleted, nil
	}

	hasSelection, err := probe.hasSelection(ctx, userID)
	if err != nil {
		return onboardingFresh, err
	}
	if hasSelection {
		return onboardingLegacy, nil
	}
	return onboardingFresh, nil
}
