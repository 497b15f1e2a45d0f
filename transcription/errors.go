package transcription

import "errors"

// Malformed input. These are precondition violations returned to the caller;
// the pipeline never repairs them.
var (
	ErrLengthMismatch    = errors.New("frame arrays differ in length")
	ErrNonMonotonicTime  = errors.New("frame times are not strictly increasing")
	ErrNonUniformSpacing = errors.New("frame times are not spaced at the hop interval")
	ErrInvalidFrameRate  = errors.New("sample rate and hop length must be positive")
	ErrInvalidTempo      = errors.New("tempo must be a finite positive bpm")
)

// IsInputError reports whether err was caused by malformed caller input
func IsInputError(err error) bool {
	return errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrNonMonotonicTime) ||
		errors.Is(err, ErrNonUniformSpacing) ||
		errors.Is(err, ErrInvalidFrameRate) ||
		errors.Is(err, ErrInvalidTempo)
}
