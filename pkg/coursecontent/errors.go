package coursecontent

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrItemExists indicates a conditional write found the target address
	// already occupied.
	ErrItemExists = errors.New("item already exists")

	// ErrItemNotFound indicates a read/update/delete targeted an absent address.
	ErrItemNotFound = errors.New("item not found")

	// ErrCategoryNotFound indicates a category was not found
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCategoryExists indicates a category already exists at the target address
	ErrCategoryExists = errors.New("category already exists")

	// ErrCourseNotFound indicates a course was not found
	ErrCourseNotFound = errors.New("course not found")

	// ErrCourseExists indicates a course already exists at the target address
	ErrCourseExists = errors.New("course already exists")

	// ErrLectureNotFound indicates a lecture was not found
	ErrLectureNotFound = errors.New("lecture not found")

	// ErrMaterialNotFound indicates a material was not found
	ErrMaterialNotFound = errors.New("material not found")

	// ErrOrderCollision indicates two siblings were assigned the same position
	ErrOrderCollision = errors.New("sibling position already taken")

	// ErrUnsupportedType indicates an upload MIME type outside the recognized set
	ErrUnsupportedType = errors.New("unsupported material type")

	// ErrObjectNotFound indicates a backing object was not found in its backend
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidStorageType indicates an unknown storage type
	ErrInvalidStorageType = errors.New("invalid storage type")

	// ErrCourseNotDraft indicates a publish attempt on a non-draft course
	ErrCourseNotDraft = errors.New("course is not in draft status")
)

// CourseError represents an error related to course operations
type CourseError struct {
	CourseID uuid.UUID
	Op       string
	Err      error
}

func (e *CourseError) Error() string {
	return fmt.Sprintf("course operation %s failed for course %s: %v", e.Op, e.CourseID, e.Err)
}

func (e *CourseError) Unwrap() error {
	return e.Err
}

// MaterialError represents an error related to material operations
type MaterialError struct {
	MaterialID uuid.UUID
	Op         string
	Err        error
}

func (e *MaterialError) Error() string {
	return fmt.Sprintf("material operation %s failed for material %s: %v", e.Op, e.MaterialID, e.Err)
}

func (e *MaterialError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to storage backend operations
type StorageError struct {
	StorageType StorageType
	Location    string
	Op          string
	Err         error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for %s on %s: %v", e.Op, e.Location, e.StorageType, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// CascadeError reports the branch where a cascade delete stopped. Every
// cascade step is idempotent, so the caller may retry the whole cascade
// with the same arguments.
type CascadeError struct {
	EntityType string
	EntityID   uuid.UUID
	Err        error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade delete stopped at %s %s: %v", e.EntityType, e.EntityID, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}
