package pipeline

import "errors"

// Failure classes for a single upload. Handlers match these with errors.Is
// to pick a status code; the wrapped cause stays server-side.
var (
	// ErrNoFile means the request carried no file under the expected field.
	ErrNoFile = errors.New("pipeline: no file provided")

	// ErrTranscode means the source could not be decoded as an image or the
	// derivative could not be written.
	ErrTranscode = errors.New("pipeline: transcode failed")

	// ErrMeasure means the derivative vanished or was unreadable after the
	// write.
	ErrMeasure = errors.New("pipeline: measuring derived artifact failed")

	// ErrPersist means the metadata store rejected the record or was
	// unreachable.
	ErrPersist = errors.New("pipeline: persisting file record failed")
)
