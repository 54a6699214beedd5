package media

import "errors"

var (
	ErrMediaNotFound   = errors.New("product media not found")
	ErrSettingNotFound = errors.New("setting not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrStorageError    = errors.New("storage error")
)
