package journal

import "procurement-be/internal/apperror"

var (
	ErrForbidden    = apperror.New(apperror.KindForbidden, "journal access requires the admin role")
	ErrInvalidRange = apperror.New(apperror.KindValidation, "date range start is after its end")
)
