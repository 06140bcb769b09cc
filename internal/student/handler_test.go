package student_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"student-api/internal/metrics"
	"student-api/internal/student"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

type handlerFixture struct {
	*serviceFixture
	router *gin.Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newServiceFixture(t)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	m, err := metrics.New(otel.GetMeterProvider().Meter("test"))
	require.NoError(t, err)

	handler := student.NewHandler(f.service, logger, m)
	router := gin.New()
	api := router.Group("/api")
	handler.RegisterRoutes(api)

	return &handlerFixture{serviceFixture: f, router: router}
}

// studentForm builds a multipart body with the usual fields; image is optional.
func studentForm(t *testing.T, fields map[string]string, imageName string, imageContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	if imageName != "" {
		part, err := writer.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(imageContent))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"fname":   "Ann",
		"lname":   "Lee",
		"email":   "a@b.com",
		"major":   "CS",
		"address": "1 Main St",
	}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = body
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAddStudentEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	body, contentType := studentForm(t, validFields(), "", nil)
	w := f.do(t, http.MethodPost, "/api/students/add", body, contentType)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Message string `json:"message"`
		ID      int    `json:"id"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "Student added successfully!", response.Message)
	assert.Equal(t, 1, response.ID)
}

func TestAddStudentEndpointWithImage(t *testing.T) {
	f := newHandlerFixture(t)

	body, contentType := studentForm(t, validFields(), "photo.png", []byte("png bytes"))
	w := f.do(t, http.MethodPost, "/api/students/add", body, contentType)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.blobCount(t))

	// the stored image comes back base64-encoded on reads
	w = f.do(t, http.MethodGet, "/api/students/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var view student.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	assert.True(t, view.HasImage)
	require.NotNil(t, view.Profile)
	assert.Equal(t, "cG5nIGJ5dGVz", *view.Profile) // base64("png bytes")
}

func TestAddStudentEndpointValidation(t *testing.T) {
	f := newHandlerFixture(t)

	fields := validFields()
	fields["email"] = "not-an-email"
	body, contentType := studentForm(t, fields, "", nil)

	w := f.do(t, http.MethodPost, "/api/students/add", body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
	assert.Empty(t, f.repo.students)
}

func TestAddStudentEndpointRejectsNonImageFile(t *testing.T) {
	f := newHandlerFixture(t)

	body, contentType := studentForm(t, validFields(), "malware.exe", []byte("mz"))
	w := f.do(t, http.MethodPost, "/api/students/add", body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.blobCount(t))
}

func TestGetStudentEndpointNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/students/99999", nil, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Student not found"}`, w.Body.String())
}

func TestGetStudentEndpointInvalidID(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/students/abc", nil, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListStudentsEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	for i := 0; i < 2; i++ {
		fields := validFields()
		fields["email"] = fmt.Sprintf("s%d@example.com", i)
		body, contentType := studentForm(t, fields, "", nil)
		w := f.do(t, http.MethodPost, "/api/students/add", body, contentType)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := f.do(t, http.MethodGet, "/api/students", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var views []student.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&views))
	require.Len(t, views, 2)
	assert.Equal(t, 1, views[0].ID)
	assert.Equal(t, 2, views[1].ID)
	assert.Equal(t, "s0@example.com", views[0].Email)
}

func TestListMajorsEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/students/majors", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var majors []student.Major
	require.NoError(t, json.NewDecoder(w.Body).Decode(&majors))
	require.Len(t, majors, 2)
	assert.Equal(t, "CS", majors[0].Code)
	assert.Equal(t, "Computer Science", majors[0].Description)
}

func TestModifyStudentEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	body, contentType := studentForm(t, validFields(), "old.png", []byte("old"))
	w := f.do(t, http.MethodPost, "/api/students/add", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)
	oldRef := f.repo.students[1].ProfileImage

	fields := validFields()
	fields["fname"] = "Anna"
	body, contentType = studentForm(t, fields, "new.jpg", []byte("new"))
	w = f.do(t, http.MethodPost, "/api/students/modify/1", body, contentType)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Student updated successfully"}`, w.Body.String())

	assert.Equal(t, "Anna", f.repo.students[1].FirstName)
	assert.False(t, f.blobs.Exists(oldRef))
}

func TestModifyStudentEndpointNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	body, contentType := studentForm(t, validFields(), "", nil)
	w := f.do(t, http.MethodPost, "/api/students/modify/77", body, contentType)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteStudentEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	body, contentType := studentForm(t, validFields(), "photo.gif", []byte("gif"))
	w := f.do(t, http.MethodPost, "/api/students/add", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)
	ref := f.repo.students[1].ProfileImage

	w = f.do(t, http.MethodDelete, "/api/students/1", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Student deleted successfully!"}`, w.Body.String())
	assert.Empty(t, f.repo.students)
	assert.False(t, f.blobs.Exists(ref))
}

func TestDeleteStudentEndpointNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodDelete, "/api/students/12345", nil, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Student not found"}`, w.Body.String())
}
