package remote

import "errors"

var (
	// ErrMissingPlanID indicates a fetch or save without a plan id.
	ErrMissingPlanID = errors.New("no term plan id provided")

	// ErrNotFound indicates the dashboard has no plan with that id for the user.
	ErrNotFound = errors.New("term plan not found")

	// ErrUnauthorized indicates the dashboard rejected the credentials.
	ErrUnauthorized = errors.New("dashboard rejected credentials")

	// ErrBackend indicates any other non-success response from the dashboard.
	ErrBackend = errors.New("dashboard error")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("dashboard request timed out")

	// ErrUnavailable indicates the dashboard could not be reached.
	ErrUnavailable = errors.New("dashboard unavailable")
)

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingPlanID):
		return "MISSING_ID"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrBackend):
		return "BACKEND"
	default:
		return "UNKNOWN"
	}
}
