package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	mediasvc "github.com/coinmews/coinmews/internal/services/media"
	"github.com/coinmews/coinmews/internal/services/rate"
	"github.com/coinmews/coinmews/internal/transport/http/dto"
)

type mediaStoreStub struct {
	created []model.MediaUpload
}

func (s *mediaStoreStub) Create(_ context.Context, upload model.MediaUpload) (model.MediaUpload, error) {
	upload.ID = int64(len(s.created) + 1)
	s.created = append(s.created, upload)
	return upload, nil
}

func (s *mediaStoreStub) ListOrphans(context.Context, time.Time, int) ([]model.MediaUpload, error) {
	return nil, nil
}

func (s *mediaStoreStub) Delete(context.Context, int64) error {
	return nil
}

type objectStorageStub struct {
	objects map[string][]byte
}

func (s *objectStorageStub) EnsureBucket(context.Context) error { return nil }

func (s *objectStorageStub) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = raw
	return nil
}

func (s *objectStorageStub) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/" + key, nil
}

func (s *objectStorageStub) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func multipartImage(t *testing.T, fileName, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func newMediaHandlerForTest(maxBytes int64) (*MediaHandler, *mediaStoreStub, *objectStorageStub) {
	store := &mediaStoreStub{}
	storage := &objectStorageStub{objects: map[string][]byte{}}
	svc := mediasvc.NewService(store, storage, nil, mediasvc.Config{MaxUploadBytes: maxBytes}, nil)
	return NewMediaHandler(svc), store, storage
}

func TestUploadImageStoresObject(t *testing.T) {
	handler, store, storage := newMediaHandlerForTest(1024)

	body, contentType := multipartImage(t, "logo.png", "image/png", []byte("\x89PNG fake"))
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/v1/media/images", body), 3, enums.RoleUser)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.UploadImage(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d body=%s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	var res dto.MediaUploadResponse
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if res.ObjectKey == "" || res.ContentType != "image/png" {
		t.Fatalf("unexpected upload response: %+v", res)
	}
	if len(store.created) != 1 || len(storage.objects) != 1 {
		t.Fatalf("expected one stored upload, got records=%d objects=%d", len(store.created), len(storage.objects))
	}
}

func TestUploadImageRejectsUnsupportedType(t *testing.T) {
	handler, store, _ := newMediaHandlerForTest(1024)

	body, contentType := multipartImage(t, "notes.txt", "text/plain", []byte("hello"))
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/v1/media/images", body), 3, enums.RoleUser)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.UploadImage(rr, req)

	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnsupportedMediaType)
	}
	if len(store.created) != 0 {
		t.Fatalf("unsupported upload must not be stored")
	}
}

func TestUploadImageRejectsOversizedFile(t *testing.T) {
	handler, _, _ := newMediaHandlerForTest(16)

	body, contentType := multipartImage(t, "big.png", "image/png", bytes.Repeat([]byte("a"), 64))
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/v1/media/images", body), 3, enums.RoleUser)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.UploadImage(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestUploadImageRequiresFile(t *testing.T) {
	handler, _, _ := newMediaHandlerForTest(1024)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("note", "no file")
	_ = writer.Close()

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/v1/media/images", body), 3, enums.RoleUser)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.UploadImage(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUploadImageRateLimited(t *testing.T) {
	store := &mediaStoreStub{}
	storage := &objectStorageStub{objects: map[string][]byte{}}
	limiter := limiterStub{err: &rate.LimitError{Rule: "uploads", RetryAfterSec: 90}}
	handler := NewMediaHandler(mediasvc.NewService(store, storage, limiter, mediasvc.Config{MaxUploadBytes: 1024}, nil))

	body, contentType := multipartImage(t, "logo.png", "image/png", []byte("\x89PNG fake"))
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/v1/media/images", body), 3, enums.RoleUser)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.UploadImage(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusTooManyRequests)
	}
	if got := rr.Header().Get("Retry-After"); got != "90" {
		t.Fatalf("unexpected Retry-After: %q", got)
	}
	if len(store.created) != 0 || len(storage.objects) != 0 {
		t.Fatalf("rate limited upload must not be stored")
	}
}
