package order

import "procurement-be/internal/apperror"

var (
	ErrOrderNotFound   = apperror.New(apperror.KindNotFound, "order not found")
	ErrNoLines         = apperror.New(apperror.KindValidation, "an order needs at least one line")
	ErrInvalidQuantity = apperror.New(apperror.KindValidation, "quantity must be between 1 and 2147483647")
	ErrLineProduct     = apperror.New(apperror.KindValidation, "each line needs a productId or a product name")
	ErrUnknownAction   = apperror.New(apperror.KindValidation, "unknown transition action")
	ErrInvalidStatus   = apperror.New(apperror.KindValidation, "unknown order status")
	ErrInvalidRange    = apperror.New(apperror.KindValidation, "date range start is after its end")
	ErrNotEditable     = apperror.New(apperror.KindInvalidState, "order can only be edited while Submitted or Rejected")
	ErrForbidden       = apperror.New(apperror.KindForbidden, "not allowed to perform this action on the order")
)
