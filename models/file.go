package models

import (
	"time"

	"github.com/google/uuid"
)

// UploadedFile describes a single file accepted at the HTTP boundary. It is
// built once at ingress and treated as read-only afterwards; the file it
// points at is removed once a compressed derivative exists.
type UploadedFile struct {
	FieldName    string
	OriginalName string // client supplied, untrusted
	StoredName   string // server generated, unique per upload directory
	StoredPath   string
	MediaType    string // client supplied MIME hint, untrusted
	Encoding     string
	SizeBytes    int64 // measured by the server while saving, never client-declared
}

// DerivedArtifact is the compressed output of the transcoding step.
type DerivedArtifact struct {
	StoredPath string
	SizeBytes  int64
}

// FileRecord is the durable metadata document written exactly once per
// successful upload. Size and CompressedSize always hold the same
// measurement; both are kept so consumers relying on either name keep
// working.
type FileRecord struct {
	ID             string    `bson:"_id" json:"id"`
	FieldName      string    `bson:"fieldname" json:"fieldname"`
	OriginalName   string    `bson:"originalname" json:"originalname"`
	Encoding       string    `bson:"encoding" json:"encoding"`
	MimeType       string    `bson:"mimetype" json:"mimetype"`
	StoredName     string    `bson:"filename" json:"filename"`
	Path           string    `bson:"path" json:"path"`
	Size           int64     `bson:"size" json:"size"`
	OriginalSize   int64     `bson:"originalSize" json:"originalSize"`
	CompressedSize int64     `bson:"compressedSize" json:"compressedSize"`
	UploadedAt     time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// NewFileRecord builds the persisted record from the ingress descriptor and
// the measured derivative. The field list is fixed on purpose: nothing
// internal (temp paths, form bookkeeping) can leak into the stored schema.
func NewFileRecord(up *UploadedFile, derived *DerivedArtifact) *FileRecord {
	return &FileRecord{
		ID:             uuid.NewString(),
		FieldName:      up.FieldName,
		OriginalName:   up.OriginalName,
		Encoding:       up.Encoding,
		MimeType:       up.MediaType,
		StoredName:     up.StoredName,
		Path:           derived.StoredPath,
		Size:           derived.SizeBytes,
		OriginalSize:   up.SizeBytes,
		CompressedSize: derived.SizeBytes,
		UploadedAt:     time.Now(),
	}
}
