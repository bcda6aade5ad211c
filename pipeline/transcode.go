package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
)

// Transcoding policy, fixed by contract: derivatives are JPEG, at most
// maxWidth pixels wide, aspect ratio preserved.
const (
	maxWidth    = 800
	jpegQuality = 80
)

// Transcoder produces a compressed derivative of a source file. It writes
// exactly one new file at targetPath and never touches sourcePath.
type Transcoder interface {
	Transcode(ctx context.Context, sourcePath, targetPath string) error
}

// ImagingTranscoder implements Transcoder with disintegration/imaging. Any
// input is accepted; a source that does not decode as an image fails here
// rather than being pre-validated.
type ImagingTranscoder struct{}

func (ImagingTranscoder) Transcode(ctx context.Context, sourcePath, targetPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := imaging.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("decode %s: %w", sourcePath, err)
	}

	// imaging.Resize would happily enlarge a narrow source, so sources
	// already within bounds are only re-encoded, never upscaled.
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	// The target keeps the original extension in its name but is always
	// JPEG encoded, so the format cannot depend on what the client named
	// the file.
	out, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", targetPath, err)
	}
	if err := imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		out.Close()
		os.Remove(targetPath)
		return fmt.Errorf("encode %s: %w", targetPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(targetPath)
		return fmt.Errorf("close %s: %w", targetPath, err)
	}
	return nil
}
