package entities

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrLabelNotFound    = errors.New("label not found")

	// ErrInvalidTransition: the target status is not reachable from the
	// entity's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrOrderNotReturnable: returns are only processed against shipped or
	// delivered orders.
	ErrOrderNotReturnable = errors.New("order is not in a returnable status")
	// ErrItemsNotInOrder: a product named in a return does not belong to
	// the order's items.
	ErrItemsNotInOrder = errors.New("products are not part of the order")
	// ErrProductsNotReturned: return intake requires every product to be in
	// returned status.
	ErrProductsNotReturned = errors.New("products are not in returned status")
	// ErrInvalidIntakeStatus: return intake only re-enters the pipeline at
	// inspection, storage or listing.
	ErrInvalidIntakeStatus = errors.New("invalid return intake status")

	ErrFileTooLarge        = errors.New("label file exceeds the size limit")
	ErrUnsupportedFileType = errors.New("unsupported label file type")
)
