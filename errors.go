package authcore

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the session core.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNetworkFailure is an exported constant or variable used by the session core.
	ErrNetworkFailure = errors.New("network failure")
	// ErrServerFailure is an exported constant or variable used by the session core.
	ErrServerFailure = errors.New("server failure")
	// ErrUnauthorized is an exported constant or variable used by the session core.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRegistrationInvalid is an exported constant or variable used by the session core.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrAccountExists is an exported constant or variable used by the session core.
	ErrAccountExists = errors.New("account already exists")
	// ErrCheckTimeout is an exported constant or variable used by the session core.
	ErrCheckTimeout = errors.New("authentication check timed out")
	// ErrRecordUnavailable is an exported constant or variable used by the session core.
	ErrRecordUnavailable = errors.New("session record storage unavailable")
	// ErrManagerNotReady is an exported constant or variable used by the session core.
	ErrManagerNotReady = errors.New("manager not initialized")
)

// classify maps an API-client or storage failure onto the public error
// taxonomy. Sentinels pass through untouched; anything unrecognized becomes a
// server failure so no raw transport error ever reaches a route guard.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrNetworkFailure),
		errors.Is(err, ErrServerFailure),
		errors.Is(err, ErrAccountExists),
		errors.Is(err, ErrRegistrationInvalid):
		return err
	default:
		return errors.Join(ErrServerFailure, err)
	}
}
