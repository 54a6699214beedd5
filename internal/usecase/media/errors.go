package media

import "errors"

var (
	ErrRecordNotFound = errors.New("media record not found")
	ErrEmptySKU       = errors.New("sku must not be empty")
)
