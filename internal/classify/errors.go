package classify

import "errors"

var (
	ErrEmptyContent          = errors.New("file content must not be empty")
	ErrEmptyFileName         = errors.New("file name must not be empty")
	ErrEmptyImage            = errors.New("image file is empty")
	ErrInvalidClassification = errors.New("invalid classification")
)
