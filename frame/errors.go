package frame

import "errors"

// Sentinel errors for the frame package. Kept local so transport can depend
// on frame without a shared errors package.
var (
	ErrCorrupted     = errors.New("frame: structurally invalid bytes")
	ErrFrameTooLarge = errors.New("frame: frame exceeds max size")
)
