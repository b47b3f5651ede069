package coursecontent

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Item is one row of the underlying two-part-key store. Value holds the
// JSON-encoded entity. IndexKey/IndexSortKey, when set, place the row in
// the single secondary index.
type Item struct {
	PartitionKey string
	SortKey      string
	IndexKey     string
	IndexSortKey string
	Value        []byte
}

// Store is the underlying key-value store: lookup and range scan by
// (partition key, sort key), one secondary index, conditional writes, and
// an atomic counter primitive. Implementations live under store/.
type Store interface {
	// Get returns the item at an exact address, or ErrItemNotFound.
	Get(ctx context.Context, partitionKey, sortKey string) (*Item, error)

	// PutIfAbsent writes an item only when the address is free, failing
	// with ErrItemExists otherwise.
	PutIfAbsent(ctx context.Context, item Item) error

	// Put writes an item unconditionally.
	Put(ctx context.Context, item Item) error

	// Update overwrites an existing item, failing with ErrItemNotFound
	// when the address is absent.
	Update(ctx context.Context, item Item) error

	// Delete removes the item at an address, failing with ErrItemNotFound
	// when absent.
	Delete(ctx context.Context, partitionKey, sortKey string) error

	// Query returns all items of a partition whose sort key begins with
	// prefix, in lexicographic sort-key order.
	Query(ctx context.Context, partitionKey, sortKeyPrefix string) ([]Item, error)

	// QueryIndex returns all items of a secondary-index partition in
	// ascending index-sort-key order.
	QueryIndex(ctx context.Context, indexKey string) ([]Item, error)

	// Increment atomically adds delta to the counter at an address,
	// creating it at delta when absent, and returns the new value.
	Increment(ctx context.Context, partitionKey, sortKey string, delta int64) (int64, error)
}

// BlobStore is a storage backend for material backing objects.
// Implementations live under storage/.
type BlobStore interface {
	// Upload writes content under an object key, overwriting any previous
	// object held there.
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// Download returns the content held under an object key, or
	// ErrObjectNotFound.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object held under a key, returning
	// ErrObjectNotFound when there is none.
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta describes the object held under a key.
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// Repository is typed CRUD per entity over the Store, using the key schema
// to compute addresses.
type Repository interface {
	// Category operations
	CreateCategory(ctx context.Context, category *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*Category, error)

	// Course operations
	CreateCourse(ctx context.Context, course *Course) error
	GetCourse(ctx context.Context, id uuid.UUID) (*Course, error)
	UpdateCourse(ctx context.Context, course *Course) error
	DeleteCourse(ctx context.Context, id uuid.UUID) error
	ListCoursesByCategory(ctx context.Context, categoryID uuid.UUID) ([]*Course, error)

	// Lecture operations. CreateLecture allocates the next position from
	// the per-course counter when lecture.Order is UnassignedOrder;
	// explicit positions fail with ErrOrderCollision when taken.
	CreateLecture(ctx context.Context, lecture *Lecture) error
	ListLecturesByCourse(ctx context.Context, courseID uuid.UUID) ([]*Lecture, error)
	FindLectureByID(ctx context.Context, courseID, lectureID uuid.UUID) (*Lecture, error)
	UpdateLecture(ctx context.Context, lecture *Lecture) error
	DeleteLecture(ctx context.Context, courseID uuid.UUID, lectureOrder int) error

	// Material operations
	CreateMaterial(ctx context.Context, material *Material) error
	ListMaterialsByLecture(ctx context.Context, courseID uuid.UUID, lectureOrder int) ([]*Material, error)
	FindMaterialByID(ctx context.Context, courseID uuid.UUID, lectureOrder int, materialID uuid.UUID) (*Material, error)
	UpdateMaterial(ctx context.Context, material *Material) error
	DeleteMaterial(ctx context.Context, courseID uuid.UUID, lectureOrder, materialOrder int) error

	// Auxiliary rows
	PutPendingRelease(ctx context.Context, marker *PendingRelease) error
	GetPendingRelease(ctx context.Context, courseID, materialID uuid.UUID) (*PendingRelease, error)
	ListPendingReleases(ctx context.Context, courseID uuid.UUID) ([]*PendingRelease, error)
	DeletePendingRelease(ctx context.Context, courseID, materialID uuid.UUID) error
	DeleteMaterialCounter(ctx context.Context, courseID uuid.UUID, lectureOrder int) error
	DeleteCounters(ctx context.Context, courseID uuid.UUID) error
}

// EventSink receives notifications about content lifecycle events. Sinks
// must not fail the triggering operation; errors are logged and dropped.
type EventSink interface {
	CourseCreated(ctx context.Context, course *Course) error
	CoursePublished(ctx context.Context, course *Course) error
	CourseDeleted(ctx context.Context, courseID uuid.UUID) error
	LectureCreated(ctx context.Context, lecture *Lecture) error
	MaterialUploaded(ctx context.Context, material *Material) error
	MaterialDeleted(ctx context.Context, materialID uuid.UUID) error
}
