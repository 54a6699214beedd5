package mediastore

import "errors"

var (
	ErrIndexOutOfRange = errors.New("media record index out of range")
	ErrNotPermutation  = errors.New("order is not a permutation of existing records")
)
