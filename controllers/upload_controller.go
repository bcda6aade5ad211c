package controllers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imgstash/imgstash/models"
	"github.com/imgstash/imgstash/pipeline"
	"github.com/imgstash/imgstash/utils"
)

// uploadField is the multipart form field the client must use.
const uploadField = "profileImage"

// UploadController owns the single upload endpoint.
type UploadController struct {
	manager   *pipeline.Manager
	uploadDir string
	maxBytes  int64
}

func NewUploadController(manager *pipeline.Manager, uploadDir string, maxUploadMB int) *UploadController {
	return &UploadController{
		manager:   manager,
		uploadDir: uploadDir,
		maxBytes:  int64(maxUploadMB) * 1024 * 1024,
	}
}

// Upload accepts one multipart file, stores it under a timestamped name, and
// hands it to the pipeline. A missing file is the caller's mistake; every
// later failure is a server error with a generic body.
func (u *UploadController) Upload(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile(uploadField)
	if err != nil {
		utils.ClientError(ctx, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > 0 && header.Size > u.maxBytes {
		utils.ClientError(ctx, fmt.Sprintf("file size exceeds %dMB", u.maxBytes/(1024*1024)))
		return
	}

	storedName := pipeline.StoredName(header.Filename, time.Now())
	storedPath := filepath.Join(u.uploadDir, storedName)

	written, err := saveLimited(file, storedPath, u.maxBytes)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			utils.ClientError(ctx, fmt.Sprintf("file size exceeds %dMB", u.maxBytes/(1024*1024)))
			return
		}
		utils.Sugar.Errorw("failed to save upload", "name", header.Filename, "error", err)
		utils.ServerError(ctx, "Error processing the file")
		return
	}

	uploaded := &models.UploadedFile{
		FieldName:    uploadField,
		OriginalName: header.Filename,
		StoredName:   storedName,
		StoredPath:   storedPath,
		MediaType:    header.Header.Get("Content-Type"),
		Encoding:     header.Header.Get("Content-Transfer-Encoding"),
		SizeBytes:    written,
	}

	result, err := u.manager.Process(ctx.Request.Context(), uploaded)
	if err != nil {
		utils.Sugar.Errorw("upload pipeline failed", "name", header.Filename, "error", err)
		utils.ServerError(ctx, "Error processing the file")
		return
	}

	utils.Created(ctx, gin.H{
		"message":             "File uploaded, compressed, and data saved successfully",
		"originalSizeBytes":   result.OriginalBytes,
		"compressedSizeBytes": result.CompressedBytes,
		"file":                result.Record,
	})
}

var errTooLarge = errors.New("upload exceeds size limit")

// saveLimited copies the upload to disk, enforcing the size cap even when
// the declared Content-Length lies. Returns the number of bytes written.
func saveLimited(src io.Reader, dstPath string, maxBytes int64) (int64, error) {
	out, err := os.Create(dstPath)
	if err != nil {
		return 0, err
	}

	lr := &io.LimitedReader{R: src, N: maxBytes + 1}
	written, err := io.Copy(out, lr)
	if err != nil {
		out.Close()
		os.Remove(dstPath)
		return 0, err
	}
	if written > maxBytes {
		out.Close()
		os.Remove(dstPath)
		return 0, errTooLarge
	}
	if err := out.Close(); err != nil {
		os.Remove(dstPath)
		return 0, err
	}
	return written, nil
}
