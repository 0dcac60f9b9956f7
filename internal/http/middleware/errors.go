package middleware

import "errors"

var (
	errMissingToken = errors.New("missing or invalid token")
	errStaffOnly    = errors.New("coach or admin role required")
)
