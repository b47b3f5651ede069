package coursecontent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/learnhub/course-content/pkg/coursecontent/keys"
)

// repository implements Repository over a Store using the key schema.
type repository struct {
	store Store
}

// NewRepository creates a Repository backed by the given store.
func NewRepository(store Store) Repository {
	return &repository{store: store}
}

func marshalValue(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row value: %w", err)
	}
	return data, nil
}

// Category operations

func (r *repository) CreateCategory(ctx context.Context, category *Category) error {
	pk, sk := keys.Category(category.ID.String())
	value, err := marshalValue(category)
	if err != nil {
		return err
	}

	err = r.store.PutIfAbsent(ctx, Item{
		PartitionKey: pk,
		SortKey:      sk,
		IndexKey:     keys.CategoryListIndex,
		IndexSortKey: keys.IndexSort(category.CreatedAt),
		Value:        value,
	})
	if errors.Is(err, ErrItemExists) {
		return ErrCategoryExists
	}
	return err
}

func (r *repository) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	pk, sk := keys.Category(id.String())
	item, err := r.store.Get(ctx, pk, sk)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}

	var category Category
	if err := json.Unmarshal(item.Value, &category); err != nil {
		return nil, fmt.Errorf("failed to decode category row: %w", err)
	}
	return &category, nil
}

func (r *repository) UpdateCategory(ctx context.Context, category *Category) error {
	pk, sk := keys.Category(category.ID.String())
	value, err := marshalValue(category)
	if err != nil {
		return err
	}

	err = r.store.Update(ctx, Item{
		PartitionKey: pk,
		SortKey:      sk,
		IndexKey:     keys.CategoryListIndex,
		IndexSortKey: keys.IndexSort(category.CreatedAt),
		Value:        value,
	})
	if errors.Is(err, ErrItemNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

func (r *repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	pk, sk := keys.Category(id.String())
	err := r.store.Delete(ctx, pk, sk)
	if errors.Is(err, ErrItemNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

func (r *repository) ListCategories(ctx context.Context) ([]*Category, error) {
	items, err := r.store.QueryIndex(ctx, keys.CategoryListIndex)
	if err != nil {
		return nil, err
	}

	categories := make([]*Category, 0, len(items))
	for _, item := range items {
		var category Category
		if err := json.Unmarshal(item.Value, &category); err != nil {
			return nil, fmt.Errorf("failed to decode category row: %w", err)
		}
		categories = append(categories, &category)
	}
	return categories, nil
}

// Course operations

func (r *repository) courseItem(course *Course) (Item, error) {
	pk, sk := keys.Course(course.ID.String())
	value, err := marshalValue(course)
	if err != nil {
		return Item{}, err
	}
	return Item{
		PartitionKey: pk,
		SortKey:      sk,
		IndexKey:     keys.CategoryIndex(course.CategoryID.String()),
		IndexSortKey: keys.IndexSort(course.CreatedAt),
		Value:        value,
	}, nil
}

func (r *repository) CreateCourse(ctx context.Context, course *Course) error {
	item, err := r.courseItem(course)
	if err != nil {
		return err
	}

	err = r.store.PutIfAbsent(ctx, item)
	if errors.Is(err, ErrItemExists) {
		return ErrCourseExists
	}
	return err
}

func (r *repository) GetCourse(ctx context.Context, id uuid.UUID) (*Course, error) {
	pk, sk := keys.Course(id.String())
	item, err := r.store.Get(ctx, pk, sk)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	var course Course
	if err := json.Unmarshal(item.Value, &course); err != nil {
		return nil, fmt.Errorf("failed to decode course row: %w", err)
	}
	return &course, nil
}

func (r *repository) UpdateCourse(ctx context.Context, course *Course) error {
	item, err := r.courseItem(course)
	if err != nil {
		return err
	}

	err = r.store.Update(ctx, item)
	if errors.Is(err, ErrItemNotFound) {
		return ErrCourseNotFound
	}
	return err
}

// DeleteCourse removes the course metadata row only. Callers go through
// the cascade entry points, which delete children and storage first.
func (r *repository) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	pk, sk := keys.Course(id.String())
	err := r.store.Delete(ctx, pk, sk)
	if errors.Is(err, ErrItemNotFound) {
		return ErrCourseNotFound
	}
	return err
}

func (r *repository) ListCoursesByCategory(ctx context.Context, categoryID uuid.UUID) ([]*Course, error) {
	items, err := r.store.QueryIndex(ctx, keys.CategoryIndex(categoryID.String()))
	if err != nil {
		return nil, err
	}

	courses := make([]*Course, 0, len(items))
	for _, item := range items {
		var course Course
		if err := json.Unmarshal(item.Value, &course); err != nil {
			return nil, fmt.Errorf("failed to decode course row: %w", err)
		}
		courses = append(courses, &course)
	}
	return courses, nil
}

// Lecture operations

func (r *repository) CreateLecture(ctx context.Context, lecture *Lecture) error {
	pk := keys.CoursePartition(lecture.CourseID.String())

	allocated := lecture.Order == UnassignedOrder
	for {
		if allocated {
			next, err := r.store.Increment(ctx, pk, keys.LectureCounter(), 1)
			if err != nil {
				return fmt.Errorf("failed to allocate lecture position: %w", err)
			}
			if next > keys.MaxOrder {
				return keys.ErrOrderOutOfRange
			}
			lecture.Order = int(next)
		}

		_, sk, err := keys.Lecture(lecture.CourseID.String(), lecture.Order)
		if err != nil {
			return err
		}
		value, err := marshalValue(lecture)
		if err != nil {
			return err
		}

		err = r.store.PutIfAbsent(ctx, Item{PartitionKey: pk, SortKey: sk, Value: value})
		if errors.Is(err, ErrItemExists) {
			// An explicit-position create may have claimed the allocated
			// slot already; advance the counter past it.
			if allocated {
				continue
			}
			return fmt.Errorf("%w: lecture position %d in course %s", ErrOrderCollision, lecture.Order, lecture.CourseID)
		}
		return err
	}
}

func (r *repository) ListLecturesByCourse(ctx context.Context, courseID uuid.UUID) ([]*Lecture, error) {
	pk := keys.CoursePartition(courseID.String())
	items, err := r.store.Query(ctx, pk, keys.LecturePrefix())
	if err != nil {
		return nil, err
	}

	var lectures []*Lecture
	for _, item := range items {
		if !keys.IsLectureRow(item.SortKey) {
			continue
		}
		var lecture Lecture
		if err := json.Unmarshal(item.Value, &lecture); err != nil {
			return nil, fmt.Errorf("failed to decode lecture row: %w", err)
		}
		lectures = append(lectures, &lecture)
	}
	return lectures, nil
}

// FindLectureByID resolves a lecture's UUID identity to its positional row
// by scanning the course's lectures. Linear in sibling count; fan-out is
// bounded by the padded-order ceiling.
func (r *repository) FindLectureByID(ctx context.Context, courseID, lectureID uuid.UUID) (*Lecture, error) {
	lectures, err := r.ListLecturesByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for _, lecture := range lectures {
		if lecture.ID == lectureID {
			return lecture, nil
		}
	}
	return nil, ErrLectureNotFound
}

func (r *repository) UpdateLecture(ctx context.Context, lecture *Lecture) error {
	pk, sk, err := keys.Lecture(lecture.CourseID.String(), lecture.Order)
	if err != nil {
		return err
	}

	// Guard against a stale position: the row at the address must carry
	// the same identity.
	item, err := r.store.Get(ctx, pk, sk)
	if errors.Is(err, ErrItemNotFound) {
		return ErrLectureNotFound
	}
	if err != nil {
		return err
	}
	var existing Lecture
	if err := json.Unmarshal(item.Value, &existing); err != nil {
		return fmt.Errorf("failed to decode lecture row: %w", err)
	}
	if existing.ID != lecture.ID {
		return ErrLectureNotFound
	}

	value, err := marshalValue(lecture)
	if err != nil {
		return err
	}
	err = r.store.Update(ctx, Item{PartitionKey: pk, SortKey: sk, Value: value})
	if errors.Is(err, ErrItemNotFound) {
		return ErrLectureNotFound
	}
	return err
}

func (r *repository) DeleteLecture(ctx context.Context, courseID uuid.UUID, lectureOrder int) error {
	pk, sk, err := keys.Lecture(courseID.String(), lectureOrder)
	if err != nil {
		return err
	}
	err = r.store.Delete(ctx, pk, sk)
	if errors.Is(err, ErrItemNotFound) {
		return ErrLectureNotFound
	}
	return err
}

// Material operations

func (r *repository) CreateMaterial(ctx context.Context, material *Material) error {
	pk := keys.CoursePartition(material.CourseID.String())

	// Resolve the owning lecture's position from its identity.
	lecture, err := r.FindLectureByID(ctx, material.CourseID, material.LectureID)
	if err != nil {
		return err
	}

	allocated := material.Order == UnassignedOrder
	for {
		if allocated {
			counterSK, err := keys.MaterialCounter(lecture.Order)
			if err != nil {
				return err
			}
			next, err := r.store.Increment(ctx, pk, counterSK, 1)
			if err != nil {
				return fmt.Errorf("failed to allocate material position: %w", err)
			}
			if next > keys.MaxOrder {
				return keys.ErrOrderOutOfRange
			}
			material.Order = int(next)
		}

		_, sk, err := keys.Material(material.CourseID.String(), lecture.Order, material.Order)
		if err != nil {
			return err
		}
		value, err := marshalValue(material)
		if err != nil {
			return err
		}

		err = r.store.PutIfAbsent(ctx, Item{PartitionKey: pk, SortKey: sk, Value: value})
		if errors.Is(err, ErrItemExists) {
			if allocated {
				continue
			}
			return fmt.Errorf("%w: material position %d in lecture %s", ErrOrderCollision, material.Order, material.LectureID)
		}
		return err
	}
}

func (r *repository) ListMaterialsByLecture(ctx context.Context, courseID uuid.UUID, lectureOrder int) ([]*Material, error) {
	prefix, err := keys.MaterialPrefix(lectureOrder)
	if err != nil {
		return nil, err
	}

	pk := keys.CoursePartition(courseID.String())
	items, err := r.store.Query(ctx, pk, prefix)
	if err != nil {
		return nil, err
	}

	var materials []*Material
	for _, item := range items {
		var material Material
		if err := json.Unmarshal(item.Value, &material); err != nil {
			return nil, fmt.Errorf("failed to decode material row: %w", err)
		}
		materials = append(materials, &material)
	}
	return materials, nil
}

// FindMaterialByID resolves a material's UUID identity to its positional
// row by scanning its lecture's materials.
func (r *repository) FindMaterialByID(ctx context.Context, courseID uuid.UUID, lectureOrder int, materialID uuid.UUID) (*Material, error) {
	materials, err := r.ListMaterialsByLecture(ctx, courseID, lectureOrder)
	if err != nil {
		return nil, err
	}
	for _, material := range materials {
		if material.ID == materialID {
			return material, nil
		}
	}
	return nil, ErrMaterialNotFound
}

func (r *repository) UpdateMaterial(ctx context.Context, material *Material) error {
	lecture, err := r.FindLectureByID(ctx, material.CourseID, material.LectureID)
	if err != nil {
		return err
	}
	pk, sk, err := keys.Material(material.CourseID.String(), lecture.Order, material.Order)
	if err != nil {
		return err
	}

	// Guard against a stale position: the row at the address must carry
	// the same identity.
	item, err := r.store.Get(ctx, pk, sk)
	if errors.Is(err, ErrItemNotFound) {
		return ErrMaterialNotFound
	}
	if err != nil {
		return err
	}
	var existing Material
	if err := json.Unmarshal(item.Value, &existing); err != nil {
		return fmt.Errorf("failed to decode material row: %w", err)
	}
	if existing.ID != material.ID {
		return ErrMaterialNotFound
	}

	value, err := marshalValue(material)
	if err != nil {
		return err
	}
	err = r.store.Update(ctx, Item{PartitionKey: pk, SortKey: sk, Value: value})
	if errors.Is(err, ErrItemNotFound) {
		return ErrMaterialNotFound
	}
	return err
}

func (r *repository) DeleteMaterial(ctx context.Context, courseID uuid.UUID, lectureOrder, materialOrder int) error {
	pk, sk, err := keys.Material(courseID.String(), lectureOrder, materialOrder)
	if err != nil {
		return err
	}
	err = r.store.Delete(ctx, pk, sk)
	if errors.Is(err, ErrItemNotFound) {
		return ErrMaterialNotFound
	}
	return err
}

// Auxiliary rows

func (r *repository) PutPendingRelease(ctx context.Context, marker *PendingRelease) error {
	pk := keys.CoursePartition(marker.CourseID.String())
	value, err := marshalValue(marker)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, Item{
		PartitionKey: pk,
		SortKey:      keys.PendingRelease(marker.MaterialID.String()),
		Value:        value,
	})
}

func (r *repository) ListPendingReleases(ctx context.Context, courseID uuid.UUID) ([]*PendingRelease, error) {
	pk := keys.CoursePartition(courseID.String())
	items, err := r.store.Query(ctx, pk, keys.PendingReleasePrefix())
	if err != nil {
		return nil, err
	}

	markers := make([]*PendingRelease, 0, len(items))
	for _, item := range items {
		var marker PendingRelease
		if err := json.Unmarshal(item.Value, &marker); err != nil {
			return nil, fmt.Errorf("failed to decode pending-release row: %w", err)
		}
		markers = append(markers, &marker)
	}
	return markers, nil
}

func (r *repository) GetPendingRelease(ctx context.Context, courseID, materialID uuid.UUID) (*PendingRelease, error) {
	pk := keys.CoursePartition(courseID.String())
	item, err := r.store.Get(ctx, pk, keys.PendingRelease(materialID.String()))
	if err != nil {
		return nil, err
	}
	var marker PendingRelease
	if err := json.Unmarshal(item.Value, &marker); err != nil {
		return nil, fmt.Errorf("failed to decode pending-release row: %w", err)
	}
	return &marker, nil
}

func (r *repository) DeletePendingRelease(ctx context.Context, courseID, materialID uuid.UUID) error {
	pk := keys.CoursePartition(courseID.String())
	err := r.store.Delete(ctx, pk, keys.PendingRelease(materialID.String()))
	if errors.Is(err, ErrItemNotFound) {
		return nil
	}
	return err
}

// DeleteMaterialCounter removes a single lecture's material position
// counter, so a lecture later recreated at the same position allocates
// from one again.
func (r *repository) DeleteMaterialCounter(ctx context.Context, courseID uuid.UUID, lectureOrder int) error {
	sk, err := keys.MaterialCounter(lectureOrder)
	if err != nil {
		return err
	}
	err = r.store.Delete(ctx, keys.CoursePartition(courseID.String()), sk)
	if errors.Is(err, ErrItemNotFound) {
		return nil
	}
	return err
}

// DeleteCounters removes every position-counter row of a course. Used by
// the cascade after all lectures and materials are gone.
func (r *repository) DeleteCounters(ctx context.Context, courseID uuid.UUID) error {
	pk := keys.CoursePartition(courseID.String())
	items, err := r.store.Query(ctx, pk, keys.CounterPrefix())
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := r.store.Delete(ctx, pk, item.SortKey); err != nil && !errors.Is(err, ErrItemNotFound) {
			return err
		}
	}
	return nil
}
