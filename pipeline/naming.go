package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DerivedPrefix marks the compressed output of an upload in the shared
// upload directory.
const DerivedPrefix = "compressed-"

// StoredName builds the on-disk name for an incoming upload:
// "<unix-millis>-<originalName>". The timestamp keeps names sortable by
// upload time and traceable to the source filename. Two same-named uploads
// inside the same millisecond can still collide; that risk is accepted.
func StoredName(originalName string, now time.Time) string {
	base := filepath.Base(originalName)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "file_" + uuid.NewString()
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}

// DerivedName returns the companion name for the compressed artifact.
func DerivedName(storedName string) string {
	return DerivedPrefix + storedName
}
