package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloudbox/drive-api/aws"
	"cloudbox/drive-api/db"
	"cloudbox/drive-api/model"
	"cloudbox/drive-api/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// -------- test fakes --------

type fakeBlobStore struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeBlobStore) Put(ctx context.Context, body io.Reader, filename, contentType string, size int64) (*aws.PutResult, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}

	key := aws.NextKey(filename)
	data, _ := io.ReadAll(body)
	f.objects[key] = data

	return &aws.PutResult{Key: key, Location: "https://blobs.test/" + key, Size: size}, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) PresignDownload(ctx context.Context, key string) (string, error) {
	if _, ok := f.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://blobs.test/signed/" + key, nil
}

type fakeBilling struct {
	url string
	err error
}

func (f *fakeBilling) CreateCheckoutSession(ctx context.Context) (string, error) {
	return f.url, f.err
}

func testAPI(t *testing.T) (*API, *fakeBlobStore, *fakeBilling) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	viper.Set("upload.max_size", int64(50<<20))
	viper.Set("host.client_url", "http://localhost:5173")

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(model.File{}))

	blobs := &fakeBlobStore{objects: map[string][]byte{}}
	billing := &fakeBilling{url: "https://checkout.test/session"}

	a := newAPI(service.NewReconciler(blobs, db.NewFileStore(gdb)), billing)
	return a, blobs, billing
}

func do(a *API, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func uploadFile(t *testing.T, a *API, filename string, content []byte) map[string]any {
	t.Helper()

	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := do(a, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// -------- tests --------

func TestHeartbeat(t *testing.T) {
	a, _, _ := testAPI(t)

	w := do(a, httptest.NewRequest(http.MethodHead, "/api/heartbeat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadMissingFile(t *testing.T) {
	a, _, _ := testAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := do(a, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadNotMultipart(t *testing.T) {
	a, _, _ := testAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")

	w := do(a, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAndList(t *testing.T) {
	a, blobs, _ := testAPI(t)

	resp := uploadFile(t, a, "report.pdf", []byte("%PDF-1.4 data"))
	assert.Equal(t, "Uploaded", resp["message"])

	key := resp["key"].(string)
	assert.Contains(t, blobs.objects, key)

	w := do(a, httptest.NewRequest(http.MethodGet, "/api/list", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)

	item := list.Items[0]
	assert.Equal(t, key, item["Key"])
	assert.Equal(t, float64(len("%PDF-1.4 data")), item["Size"])
	assert.Equal(t, false, item["isFavorite"])
	assert.Equal(t, false, item["isTrash"])
	assert.NotEmpty(t, item["LastModified"])
	assert.NotZero(t, item["_id"])
}

func TestUploadBlobFailure(t *testing.T) {
	a, blobs, _ := testAPI(t)
	blobs.putErr = errors.New("provider down")

	body, contentType := multipartBody(t, "a.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := do(a, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// List degrades to empty, the failed upload left no record
	w = do(a, httptest.NewRequest(http.MethodGet, "/api/list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestUpdateFlags(t *testing.T) {
	a, _, _ := testAPI(t)

	resp := uploadFile(t, a, "a.txt", []byte("x"))
	id := uint(resp["file"].(map[string]any)["_id"].(float64))

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/update/%d", id),
		bytes.NewReader([]byte(`{"isFavorite":true}`)))
	w := do(a, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = do(a, httptest.NewRequest(http.MethodGet, "/api/list", nil))
	var list struct {
		Items []model.ListedFile `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].IsFavorite)
	assert.False(t, list.Items[0].IsTrash)
}

func TestUpdateFlagsEmptyPatch(t *testing.T) {
	a, _, _ := testAPI(t)

	req := httptest.NewRequest(http.MethodPut, "/api/update/1", bytes.NewReader([]byte(`{}`)))
	w := do(a, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateFlagsUnknownID(t *testing.T) {
	a, _, _ := testAPI(t)

	req := httptest.NewRequest(http.MethodPut, "/api/update/999", bytes.NewReader([]byte(`{"isTrash":true}`)))
	w := do(a, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteIsIdempotent(t *testing.T) {
	a, blobs, _ := testAPI(t)

	resp := uploadFile(t, a, "a.txt", []byte("x"))
	id := uint(resp["file"].(map[string]any)["_id"].(float64))
	key := resp["key"].(string)

	w := do(a, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/delete/%d", id), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Deleted"}`, w.Body.String())
	assert.NotContains(t, blobs.objects, key)

	// Second delete is a no-op, still a success
	w = do(a, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/delete/%d", id), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Deleted"}`, w.Body.String())

	w = do(a, httptest.NewRequest(http.MethodGet, "/api/list", nil))
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestDeleteByKey(t *testing.T) {
	a, blobs, _ := testAPI(t)

	resp := uploadFile(t, a, "a.txt", []byte("x"))
	key := resp["key"].(string)

	w := do(a, httptest.NewRequest(http.MethodDelete, "/api/delete?key="+key, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, blobs.objects, key)
}

func TestDeleteByKeyMissingKey(t *testing.T) {
	a, _, _ := testAPI(t)

	w := do(a, httptest.NewRequest(http.MethodDelete, "/api/delete", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownload(t *testing.T) {
	a, _, _ := testAPI(t)

	resp := uploadFile(t, a, "a.txt", []byte("x"))
	key := resp["key"].(string)

	w := do(a, httptest.NewRequest(http.MethodGet, "/api/download?key="+key, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["url"], key)
}

func TestDownloadMissingKey(t *testing.T) {
	a, _, _ := testAPI(t)

	w := do(a, httptest.NewRequest(http.MethodGet, "/api/download", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCheckoutSession(t *testing.T) {
	a, _, billing := testAPI(t)

	w := do(a, httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://checkout.test/session"}`, w.Body.String())

	billing.err = errors.New("provider rejected")
	w = do(a, httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
