package coursecontent

import (
	"io"

	"github.com/google/uuid"
)

// Request DTOs

// CreateCategoryRequest contains parameters for creating a category
type CreateCategoryRequest struct {
	Name        string
	Description string
}

// UpdateCategoryRequest contains parameters for a partial category update
type UpdateCategoryRequest struct {
	CategoryID  uuid.UUID
	Name        *string
	Description *string
	IsActive    *bool
}

// CreateCourseRequest contains parameters for creating a course
type CreateCourseRequest struct {
	Name        string
	Description string
	CategoryID  uuid.UUID
	Level       string
	CreatedBy   uuid.UUID
}

// UpdateCourseRequest contains parameters for a partial course update.
// Identity and taxonomy placement are immutable; there is deliberately no
// way to change CourseID here.
type UpdateCourseRequest struct {
	CourseID    uuid.UUID
	Name        *string
	Description *string
	Level       *string
}

// AddLectureRequest contains parameters for creating a lecture.
// Position is optional: when nil the repository allocates the next free
// position from the per-course counter. Explicit positions are accepted
// for content imports and fail with ErrOrderCollision when already taken.
type AddLectureRequest struct {
	CourseID uuid.UUID
	Title    string
	Position *int
}

// UpdateLectureRequest contains parameters for a partial lecture update.
// Position is immutable after creation; repositioning is not supported.
type UpdateLectureRequest struct {
	CourseID  uuid.UUID
	LectureID uuid.UUID
	Title     *string
}

// AddMaterialRequest contains parameters for creating a material together
// with its backing object.
type AddMaterialRequest struct {
	CourseID    uuid.UUID
	LectureID   uuid.UUID
	Title       string
	Duration    int
	IsPreview   bool
	StorageType StorageType
	MimeType    string
	Content     io.Reader
	Position    *int
}

// UpdateMaterialRequest contains parameters for a partial material
// metadata update. File content and storage placement change through
// ReplaceMaterialFile and ChangeMaterialStorage instead.
type UpdateMaterialRequest struct {
	CourseID   uuid.UUID
	LectureID  uuid.UUID
	MaterialID uuid.UUID
	Title      *string
	Duration   *int
	IsPreview  *bool
}

// ReplaceMaterialFileRequest contains parameters for swapping a material's
// backing object in place.
type ReplaceMaterialFileRequest struct {
	CourseID   uuid.UUID
	LectureID  uuid.UUID
	MaterialID uuid.UUID
	MimeType   string
	Content    io.Reader
}
