package api

import (
	"errors"
	"net/http"

	"github.com/learnhub/course-content/pkg/coursecontent"
	"github.com/learnhub/course-content/pkg/coursecontent/keys"
)

// statusForError maps service sentinels onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, coursecontent.ErrCategoryNotFound),
		errors.Is(err, coursecontent.ErrCourseNotFound),
		errors.Is(err, coursecontent.ErrLectureNotFound),
		errors.Is(err, coursecontent.ErrMaterialNotFound),
		errors.Is(err, coursecontent.ErrObjectNotFound):
		return http.StatusNotFound

	case errors.Is(err, coursecontent.ErrCategoryExists),
		errors.Is(err, coursecontent.ErrCourseExists),
		errors.Is(err, coursecontent.ErrOrderCollision),
		errors.Is(err, coursecontent.ErrCourseNotDraft):
		return http.StatusConflict

	case errors.Is(err, coursecontent.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType

	case errors.Is(err, coursecontent.ErrInvalidStorageType),
		errors.Is(err, keys.ErrOrderOutOfRange):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForError(err))
}
