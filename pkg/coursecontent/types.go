package coursecontent

import (
	"time"

	"github.com/google/uuid"
)

// CourseStatus is the publication state of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
)

// MaterialType classifies a material by its content, derived from the
// upload's MIME type.
type MaterialType string

const (
	MaterialTypePDF   MaterialType = "PDF"
	MaterialTypeVideo MaterialType = "VIDEO"
)

// StorageType names the backend holding a material's backing object.
type StorageType string

const (
	StorageTypeLocal  StorageType = "LOCAL"
	StorageTypeRemote StorageType = "REMOTE"
)

// UnassignedOrder marks a lecture or material whose position has not been
// allocated yet. The repository assigns the next free position on create.
const UnassignedOrder = -1

// Category is the root of the course taxonomy. Courses denormalize the
// category id and name for read efficiency.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Course is the top of the content hierarchy.
type Course struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	CategoryID   uuid.UUID    `json:"category_id"`
	CategoryName string       `json:"category_name,omitempty"`
	Level        string       `json:"level,omitempty"`
	Status       CourseStatus `json:"status"`
	CreatedBy    uuid.UUID    `json:"created_by"`
	StudentIDs   []uuid.UUID  `json:"student_ids,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	PublishedAt  *time.Time   `json:"published_at,omitempty"`
}

// Enrolled reports whether a student is in the course's enrollment set.
func (c *Course) Enrolled(studentID uuid.UUID) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Lecture belongs to exactly one course. ID is the identity clients
// reference across requests; Order is the physical position inside the
// course partition and is immutable once the row exists.
type Lecture struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	Order     int       `json:"order"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Material belongs to exactly one lecture and owns exactly one backing
// object at a time, held either on the local filesystem (FilePath) or in
// remote object storage (ObjectKey) depending on StorageType.
type Material struct {
	ID          uuid.UUID    `json:"id"`
	LectureID   uuid.UUID    `json:"lecture_id"`
	CourseID    uuid.UUID    `json:"course_id"`
	Order       int          `json:"order"`
	Title       string       `json:"title"`
	Type        MaterialType `json:"type"`
	Duration    int          `json:"duration,omitempty"`
	IsPreview   bool         `json:"is_preview"`
	StorageType StorageType  `json:"storage_type"`
	FilePath    string       `json:"file_path,omitempty"`
	ObjectKey   string       `json:"object_key,omitempty"`
	MimeType    string       `json:"mime_type"`
	SizeBytes   int64        `json:"size_bytes"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Location returns the key or path of the material's live backing object.
func (m *Material) Location() string {
	if m.StorageType == StorageTypeLocal {
		return m.FilePath
	}
	return m.ObjectKey
}

// PendingRelease is a durable marker recording that a material's previous
// backing object still awaits deletion. It is written before the material
// row commits to its new storage location and cleared once the old object
// is gone, so a crash between the two phases is detectable and resumable.
type PendingRelease struct {
	CourseID    uuid.UUID   `json:"course_id"`
	MaterialID  uuid.UUID   `json:"material_id"`
	StorageType StorageType `json:"storage_type"`
	Location    string      `json:"location"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ObjectMeta describes a stored object as reported by its backend.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}
