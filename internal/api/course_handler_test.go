package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/course-content/pkg/coursecontent"
	blobmem "github.com/learnhub/course-content/pkg/coursecontent/storage/memory"
	storemem "github.com/learnhub/course-content/pkg/coursecontent/store/memory"
)

func setupRouter(t *testing.T) chi.Router {
	t.Helper()

	svc, err := coursecontent.New(
		coursecontent.WithRepository(coursecontent.NewRepository(storemem.New())),
		coursecontent.WithStorageManager(coursecontent.NewStorageManager(blobmem.New(), blobmem.New(), nil)),
	)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/categories", NewCategoryHandler(svc).Routes())
	r.Mount("/courses", NewCourseHandler(svc).Routes())
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createCourseFixture(t *testing.T, router chi.Router) (categoryID, courseID string) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/categories/", CreateCategoryRequest{Name: "Engineering"})
	require.Equal(t, http.StatusCreated, rec.Code)
	category := decode[CategoryResponse](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/courses/", CreateCourseRequest{
		Name:       "Systems Programming",
		CategoryID: category.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	course := decode[CourseResponse](t, rec)
	return category.ID, course.ID
}

func TestCourseLifecycleOverHTTP(t *testing.T) {
	router := setupRouter(t)
	categoryID, courseID := createCourseFixture(t, router)

	rec := doJSON(t, router, http.MethodGet, "/courses/"+courseID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	course := decode[CourseResponse](t, rec)
	assert.Equal(t, "Systems Programming", course.Name)
	assert.Equal(t, "Engineering", course.CategoryName)
	assert.Equal(t, "DRAFT", course.Status)

	rec = doJSON(t, router, http.MethodPost, "/courses/"+courseID+"/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PUBLISHED", decode[CourseResponse](t, rec).Status)

	// Publishing twice conflicts.
	rec = doJSON(t, router, http.MethodPost, "/courses/"+courseID+"/publish", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/categories/"+categoryID+"/courses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]CourseResponse](t, rec), 1)

	rec = doJSON(t, router, http.MethodDelete, "/courses/"+courseID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/courses/"+courseID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLectureAndMaterialOverHTTP(t *testing.T) {
	router := setupRouter(t)
	_, courseID := createCourseFixture(t, router)

	rec := doJSON(t, router, http.MethodPost, "/courses/"+courseID+"/lectures", AddLectureRequest{Title: "Syscalls"})
	require.Equal(t, http.StatusCreated, rec.Code)
	lecture := decode[LectureResponse](t, rec)
	assert.Equal(t, 1, lecture.Position)

	// Upload a material as a raw stream.
	uploadPath := fmt.Sprintf("/courses/%s/lectures/%s/materials/?title=Handout", courseID, lecture.ID)
	req := httptest.NewRequest(http.MethodPost, uploadPath, strings.NewReader("pdf bytes"))
	req.Header.Set("Content-Type", "application/pdf")
	uploadRec := httptest.NewRecorder()
	router.ServeHTTP(uploadRec, req)
	require.Equal(t, http.StatusCreated, uploadRec.Code)
	material := decode[MaterialResponse](t, uploadRec)
	assert.Equal(t, "PDF", material.Type)
	assert.Equal(t, 1, material.Position)

	downloadPath := fmt.Sprintf("/courses/%s/lectures/%s/materials/%s/download", courseID, lecture.ID, material.ID)
	rec = doJSON(t, router, http.MethodGet, downloadPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pdf bytes", rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	// Unsupported MIME types are rejected.
	req = httptest.NewRequest(http.MethodPost, uploadPath, strings.NewReader("zip bytes"))
	req.Header.Set("Content-Type", "application/zip")
	uploadRec = httptest.NewRecorder()
	router.ServeHTTP(uploadRec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, uploadRec.Code)

	deletePath := fmt.Sprintf("/courses/%s/lectures/%s/materials/%s", courseID, lecture.ID, material.ID)
	rec = doJSON(t, router, http.MethodDelete, deletePath, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, router, http.MethodGet, downloadPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidIDsRejected(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/courses/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/courses/", CreateCourseRequest{
		Name:       "orphan",
		CategoryID: uuid.New().String(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
