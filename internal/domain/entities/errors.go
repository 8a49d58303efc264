package entities

import "errors"

// Domain errors
var (
	ErrRunNotFound        = errors.New("segmentation run not found")
	ErrInvalidBoundaryMap = errors.New("invalid boundary map")
	ErrEmptyTranscript    = errors.New("transcript contains no utterances")
	ErrEmptyTopics        = errors.New("topic list is empty")
)
