package user

import "procurement-be/internal/apperror"

var (
	ErrUserNotFound = apperror.New(apperror.KindNotFound, "user not found")
	ErrInvalidRole  = apperror.New(apperror.KindValidation, "unknown role")
	ErrForbidden    = apperror.New(apperror.KindForbidden, "user management requires the admin role")
)
