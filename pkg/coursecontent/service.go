package coursecontent

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service is the main interface of the course-content library.
type Service interface {
	// Category operations
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*Category, error)

	// Course operations
	CreateCourse(ctx context.Context, req CreateCourseRequest) (*Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*Course, error)
	UpdateCourse(ctx context.Context, req UpdateCourseRequest) (*Course, error)
	ListCoursesByCategory(ctx context.Context, categoryID uuid.UUID) ([]*Course, error)
	PublishCourse(ctx context.Context, courseID uuid.UUID) (*Course, error)
	EnrollStudent(ctx context.Context, courseID, studentID uuid.UUID) (*Course, error)
	UnenrollStudent(ctx context.Context, courseID, studentID uuid.UUID) (*Course, error)

	// Lecture operations
	AddLecture(ctx context.Context, req AddLectureRequest) (*Lecture, error)
	ListLectures(ctx context.Context, courseID uuid.UUID) ([]*Lecture, error)
	UpdateLecture(ctx context.Context, req UpdateLectureRequest) (*Lecture, error)

	// Material operations
	AddMaterial(ctx context.Context, req AddMaterialRequest) (*Material, error)
	ListMaterials(ctx context.Context, courseID, lectureID uuid.UUID) ([]*Material, error)
	GetMaterial(ctx context.Context, courseID, lectureID, materialID uuid.UUID) (*Material, error)
	UpdateMaterial(ctx context.Context, req UpdateMaterialRequest) (*Material, error)
	ReplaceMaterialFile(ctx context.Context, req ReplaceMaterialFileRequest) (*Material, error)
	ChangeMaterialStorage(ctx context.Context, courseID, lectureID, materialID uuid.UUID, target StorageType) (*Material, error)
	DownloadMaterial(ctx context.Context, courseID, lectureID, materialID uuid.UUID) (io.ReadCloser, *Material, error)
	DeleteMaterial(ctx context.Context, courseID, lectureID, materialID uuid.UUID) error

	// Cascade deletion. These are the only sanctioned deletion entry
	// points for courses and lectures; deleting rows directly would leak
	// backing storage.
	DeleteCourseCascade(ctx context.Context, courseID uuid.UUID) error
	DeleteLectureCascade(ctx context.Context, courseID, lectureID uuid.UUID) error

	// SweepPendingReleases retries outstanding storage releases left by
	// interrupted migrations and returns how many objects were released.
	SweepPendingReleases(ctx context.Context, courseID uuid.UUID) (int, error)
}
