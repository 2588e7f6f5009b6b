package auth

import "net/http"

// Error is a failure answered to the client as {"message": Message} with Status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrMissingFields      = &Error{http.StatusBadRequest, "All fields are required"}
	ErrMissingCredentials = &Error{http.StatusBadRequest, "Email and password are required"}
	ErrUserExists         = &Error{http.StatusBadRequest, "User already exists"}
	ErrInvalidCredentials = &Error{http.StatusUnauthorized, "Invalid credentials"}
	ErrRefreshRequired    = &Error{http.StatusUnauthorized, "Refresh token required"}
	ErrInvalidRefresh     = &Error{http.StatusUnauthorized, "Invalid refresh token"}
	ErrRefreshExpired     = &Error{http.StatusUnauthorized, "Refresh token expired"}
	ErrUserNotFound       = &Error{http.StatusNotFound, "User not found"}
	ErrInvalidBody        = &Error{http.StatusBadRequest, "Invalid request body"}
	ErrPasswordTooLong    = &Error{http.StatusBadRequest, "Password must be at most 72 bytes"}

	// logout answers 400 where refresh answers 401 for the same omission
	ErrLogoutTokenRequired = &Error{http.StatusBadRequest, "Refresh token required"}

	ErrAuthRequired = &Error{http.StatusUnauthorized, "Authentication required"}
	ErrTokenExpired = &Error{http.StatusUnauthorized, "Token expired"}
	ErrInvalidToken = &Error{http.StatusForbidden, "Invalid token"}
)
