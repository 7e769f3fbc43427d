package analysis

import "errors"

var (
	// Validation failures, rejected before any network call.
	ErrImageTooLarge        = errors.New("image exceeds the size limit")
	ErrUnsupportedImageType = errors.New("unsupported image type")

	// ErrSubmission covers record creation and trigger failures. When the
	// trigger fails after the pending row exists, the row is left in place.
	ErrSubmission = errors.New("scan submission failed")

	// Worker-side analysis failures, persisted on the job record.
	ErrEmptyModelOutput  = errors.New("model returned empty output")
	ErrUnparseableOutput = errors.New("model output could not be parsed")
)
