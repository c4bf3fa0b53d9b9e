package reveal

import "errors"

var (
	ErrInvalidImage     = errors.New("invalid image")
	ErrInvalidCount     = errors.New("invalid pixel count")
	ErrNoImageLoaded    = errors.New("no image loaded")
	ErrRevealInProgress = errors.New("reveal already in progress")
)
