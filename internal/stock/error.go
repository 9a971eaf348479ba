package stock

import "procurement-be/internal/apperror"

var (
	ErrRecordNotFound    = apperror.New(apperror.KindNotFound, "no stock recorded for product")
	ErrInvalidQuantity   = apperror.New(apperror.KindValidation, "quantity must be between 1 and 2147483647")
	ErrCapacityExceeded  = apperror.New(apperror.KindValidation, "inbound would exceed the largest storable quantity")
	ErrRecipientRequired = apperror.New(apperror.KindValidation, "recipientId is required for outbound movements")
	ErrUnknownRecipient  = apperror.New(apperror.KindUnknownUser, "recipient is not a known user")
	ErrForbidden         = apperror.New(apperror.KindForbidden, "not allowed to record stock movements")
)
