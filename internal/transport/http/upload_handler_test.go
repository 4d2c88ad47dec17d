package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/ingest"
)

type fakeIngest struct {
	result  *ingest.Result
	profile *ingest.Profile
	err     error

	gotFilename string
	gotContent  []byte
	cleared     bool
}

func (f *fakeIngest) Ingest(_ context.Context, content []byte, filename string) (*ingest.Result, error) {
	f.gotContent = content
	f.gotFilename = filename
	return f.result, f.err
}

func (f *fakeIngest) Analyze(content []byte, filename string) (*ingest.Profile, error) {
	f.gotContent = content
	f.gotFilename = filename
	return f.profile, f.err
}

func (f *fakeIngest) Clear(context.Context) error {
	f.cleared = true
	return f.err
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadSuccess(t *testing.T) {
	svc := &fakeIngest{result: &ingest.Result{
		Message:          "Sales Data Imported Successfully",
		RecordsProcessed: 2,
		Type:             ingest.TypeSales,
	}}
	h := NewUploadHandler(svc, 64, nil)

	body, contentType := multipartBody(t, "sales.csv", "Customer,Revenue\nJohn,100\n")
	req := httptest.NewRequest(http.MethodPost, "/csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sales.csv", svc.gotFilename)

	var result ingest.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.RecordsProcessed)
}

func TestUploadMissingFile(t *testing.T) {
	h := NewUploadHandler(&fakeIngest{}, 64, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestUploadPayloadTooLarge(t *testing.T) {
	h := NewUploadHandler(&fakeIngest{}, 1, nil)

	big := bytes.Repeat([]byte("a"), 2<<20)
	body, contentType := multipartBody(t, "big.csv", string(big))
	req := httptest.NewRequest(http.MethodPost, "/csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadPipelineErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"decode failure", errors.New("unable to decode content with encodings [utf-8]"), http.StatusBadRequest, "DECODE_FAILED"},
		{"unsupported extension", errors.New("unsupported file extension: .pdf"), http.StatusBadRequest, "UNSUPPORTED_FILE"},
		{"empty file", errors.New("file contains no data"), http.StatusBadRequest, "EMPTY_FILE"},
		{"storage failure", errors.New("insert orders: connection reset"), http.StatusInternalServerError, "UPLOAD_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUploadHandler(&fakeIngest{err: tt.err}, 64, nil)

			body, contentType := multipartBody(t, "sales.csv", "x")
			req := httptest.NewRequest(http.MethodPost, "/csv", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			h.Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	svc := &fakeIngest{profile: &ingest.Profile{Rows: 3, ColumnCount: 2, IsClean: true}}
	h := NewUploadHandler(svc, 64, nil)

	body, contentType := multipartBody(t, "sales.csv", "Customer,Revenue\nJohn,100\n")
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var profile ingest.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, 3, profile.Rows)
	assert.True(t, profile.IsClean)
}

func TestClearEndpoint(t *testing.T) {
	svc := &fakeIngest{}
	h := NewUploadHandler(svc, 64, nil)

	req := httptest.NewRequest(http.MethodDelete, "/clear", nil)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.cleared)
}

func TestClearEndpointError(t *testing.T) {
	h := NewUploadHandler(&fakeIngest{err: errors.New("truncate: boom")}, 64, nil)

	req := httptest.NewRequest(http.MethodDelete, "/clear", nil)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
