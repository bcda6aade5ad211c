package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imgstash/imgstash/models"
	"github.com/imgstash/imgstash/pipeline"
	"github.com/imgstash/imgstash/stores"
	"github.com/imgstash/imgstash/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
	utils.Sugar = utils.Logger.Sugar()
	os.Exit(m.Run())
}

type fakeStore struct {
	insertErr error
	records   []*models.FileRecord
}

func (f *fakeStore) Insert(_ context.Context, record *models.FileRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeStore) Totals(context.Context) (stores.Totals, error) {
	var t stores.Totals
	for _, r := range f.records {
		t.Count++
		t.OriginalBytes += r.OriginalSize
		t.CompressedBytes += r.CompressedSize
	}
	return t, nil
}

func (f *fakeStore) HasPath(_ context.Context, path string) (bool, error) {
	for _, r := range f.records {
		if r.Path == path {
			return true, nil
		}
	}
	return false, nil
}

func newUploadRouter(t *testing.T, store stores.FileRecordStore) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	manager := pipeline.NewManager(store, pipeline.ImagingTranscoder{}, nil)
	ctrl := NewUploadController(manager, dir, 50)

	r := gin.New()
	r.POST("/upload", ctrl.Upload)
	return r, dir
}

// jpegBytes encodes a gradient so compression behaves like it would on a
// photograph.
func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x * y) % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doUpload(r *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUploadSuccess(t *testing.T) {
	store := &fakeStore{}
	r, dir := newUploadRouter(t, store)

	content := jpegBytes(t, 2000, 1500)
	body, contentType := multipartBody(t, "profileImage", "photo.jpg", content)
	rec := doUpload(r, body, contentType)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Message             string            `json:"message"`
		OriginalSizeBytes   int64             `json:"originalSizeBytes"`
		CompressedSizeBytes int64             `json:"compressedSizeBytes"`
		File                models.FileRecord `json:"file"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, int64(len(content)), resp.OriginalSizeBytes)
	assert.Greater(t, resp.CompressedSizeBytes, int64(0))
	assert.Less(t, resp.CompressedSizeBytes, resp.OriginalSizeBytes)

	// record sizes agree with each other and with the file on disk
	assert.Equal(t, resp.File.Size, resp.File.CompressedSize)
	info, err := os.Stat(resp.File.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), resp.File.Size)

	// only the derivative remains; the original was deleted
	names := listDir(t, dir)
	require.Len(t, names, 1)
	assert.True(t, strings.HasPrefix(names[0], "compressed-"))
	assert.True(t, strings.HasSuffix(names[0], "-photo.jpg"))

	require.Len(t, store.records, 1)
}

func TestUploadNoFile(t *testing.T) {
	store := &fakeStore{}
	r, dir := newUploadRouter(t, store)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("note", "no file here"))
	require.NoError(t, w.Close())

	rec := doUpload(r, body, w.FormDataContentType())

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["message"])

	// no side effects at all
	assert.Empty(t, listDir(t, dir))
	assert.Empty(t, store.records)
}

func TestUploadUndecodableSource(t *testing.T) {
	store := &fakeStore{}
	r, dir := newUploadRouter(t, store)

	body, contentType := multipartBody(t, "profileImage", "empty.txt", nil)
	rec := doUpload(r, body, contentType)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["message"])
	// internals are never echoed
	assert.Equal(t, "internal error", resp["error"])

	// the original stays on disk for inspection; nothing persisted
	names := listDir(t, dir)
	require.Len(t, names, 1)
	assert.True(t, strings.HasSuffix(names[0], "-empty.txt"))
	assert.False(t, strings.HasPrefix(names[0], "compressed-"))
	assert.Empty(t, store.records)
}

func TestUploadStoreUnreachable(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("connection refused")}
	r, dir := newUploadRouter(t, store)

	body, contentType := multipartBody(t, "profileImage", "photo.jpg", jpegBytes(t, 1000, 800))
	rec := doUpload(r, body, contentType)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// the derivative stays on disk without a record
	var derived []string
	for _, name := range listDir(t, dir) {
		if strings.HasPrefix(name, "compressed-") {
			derived = append(derived, name)
		}
	}
	require.Len(t, derived, 1)
	assert.Empty(t, store.records)
}

func TestUploadSameNameTwice(t *testing.T) {
	store := &fakeStore{}
	r, _ := newUploadRouter(t, store)

	content := jpegBytes(t, 900, 600)
	for i := 0; i < 2; i++ {
		body, contentType := multipartBody(t, "profileImage", "photo.jpg", content)
		rec := doUpload(r, body, contentType)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		// the stored name embeds milliseconds; make the ticks distinct
		time.Sleep(2 * time.Millisecond)
	}

	require.Len(t, store.records, 2)
	assert.NotEqual(t, store.records[0].StoredName, store.records[1].StoredName)
	assert.NotEqual(t, store.records[0].ID, store.records[1].ID)
	assert.NotEqual(t, store.records[0].Path, store.records[1].Path)
}

func TestUploadWrongFieldName(t *testing.T) {
	store := &fakeStore{}
	r, dir := newUploadRouter(t, store)

	body, contentType := multipartBody(t, "avatar", "photo.jpg", jpegBytes(t, 100, 100))
	rec := doUpload(r, body, contentType)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, listDir(t, dir))
}

func TestUploadDerivedIsAlwaysJPEGAndBounded(t *testing.T) {
	store := &fakeStore{}
	r, _ := newUploadRouter(t, store)

	body, contentType := multipartBody(t, "profileImage", "wide.jpg", jpegBytes(t, 1600, 400))
	rec := doUpload(r, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, store.records, 1)
	f, err := os.Open(store.records[0].Path)
	require.NoError(t, err)
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, cfg.Width, 800)

	// derived name sits next to the stored name
	assert.Equal(t, "compressed-"+store.records[0].StoredName, filepath.Base(store.records[0].Path))
}
