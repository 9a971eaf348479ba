package catalog

import "procurement-be/internal/apperror"

var (
	ErrProductNotFound   = apperror.New(apperror.KindNotFound, "product not found")
	ErrDuplicateName     = apperror.New(apperror.KindDuplicateName, "a product with this name already exists")
	ErrNameRequired      = apperror.New(apperror.KindValidation, "product name is required")
	ErrNegativePrice     = apperror.New(apperror.KindValidation, "unit price must not be negative")
	ErrPricePrecision    = apperror.New(apperror.KindValidation, "unit price must have at most 2 decimal places")
	ErrPriceTooLarge     = apperror.New(apperror.KindValidation, "unit price must be below 1000000000000")
	ErrNegativeThreshold = apperror.New(apperror.KindValidation, "critical threshold must not be negative")
	ErrForbidden         = apperror.New(apperror.KindForbidden, "not allowed to manage products")

	// constraint backing name uniqueness
	productNameConstraint = "products_name_key"
)
