package coursecontent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	storage    *StorageManager
	eventSink  EventSink
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithStorageManager sets the material storage lifecycle manager
func WithStorageManager(manager *StorageManager) Option {
	return func(s *service) {
		s.storage = manager
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.storage == nil {
		return nil, fmt.Errorf("storage manager is required")
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Category operations

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	now := time.Now().UTC()
	category := &Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repository.GetCategory(ctx, id)
}

func (s *service) UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (*Category, error) {
	category, err := s.repository.GetCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.repository.DeleteCategory(ctx, id)
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repository.ListCategories(ctx)
}

// Course operations

func (s *service) CreateCourse(ctx context.Context, req CreateCourseRequest) (*Course, error) {
	// The category id and name are denormalized onto the course row.
	category, err := s.repository.GetCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	course := &Course{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Level:        req.Level,
		Status:       CourseStatusDraft,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repository.CreateCourse(ctx, course); err != nil {
		return nil, &CourseError{CourseID: course.ID, Op: "create", Err: err}
	}

	s.fireEvent(ctx, "course created", func(sink EventSink) error {
		return sink.CourseCreated(ctx, course)
	})
	return course, nil
}

func (s *service) GetCourse(ctx context.Context, id uuid.UUID) (*Course, error) {
	return s.repository.GetCourse(ctx, id)
}

func (s *service) UpdateCourse(ctx context.Context, req UpdateCourseRequest) (*Course, error) {
	course, err := s.repository.GetCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	course.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateCourse(ctx, course); err != nil {
		return nil, &CourseError{CourseID: course.ID, Op: "update", Err: err}
	}
	return course, nil
}

func (s *service) ListCoursesByCategory(ctx context.Context, categoryID uuid.UUID) ([]*Course, error) {
	return s.repository.ListCoursesByCategory(ctx, categoryID)
}

func (s *service) PublishCourse(ctx context.Context, courseID uuid.UUID) (*Course, error) {
	course, err := s.repository.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != CourseStatusDraft {
		return nil, &CourseError{CourseID: courseID, Op: "publish", Err: ErrCourseNotDraft}
	}

	now := time.Now().UTC()
	course.Status = CourseStatusPublished
	course.PublishedAt = &now
	course.UpdatedAt = now

	if err := s.repository.UpdateCourse(ctx, course); err != nil {
		return nil, &CourseError{CourseID: courseID, Op: "publish", Err: err}
	}

	s.fireEvent(ctx, "course published", func(sink EventSink) error {
		return sink.CoursePublished(ctx, course)
	})
	return course, nil
}

func (s *service) EnrollStudent(ctx context.Context, courseID, studentID uuid.UUID) (*Course, error) {
	course, err := s.repository.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if !course.Enrolled(studentID) {
		course.StudentIDs = append(course.StudentIDs, studentID)
		course.UpdatedAt = time.Now().UTC()
		if err := s.repository.UpdateCourse(ctx, course); err != nil {
			return nil, &CourseError{CourseID: courseID, Op: "enroll", Err: err}
		}
	}
	return course, nil
}

func (s *service) UnenrollStudent(ctx context.Context, courseID, studentID uuid.UUID) (*Course, error) {
	course, err := s.repository.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if course.Enrolled(studentID) {
		remaining := course.StudentIDs[:0]
		for _, id := range course.StudentIDs {
			if id != studentID {
				remaining = append(remaining, id)
			}
		}
		course.StudentIDs = remaining
		course.UpdatedAt = time.Now().UTC()
		if err := s.repository.UpdateCourse(ctx, course); err != nil {
			return nil, &CourseError{CourseID: courseID, Op: "unenroll", Err: err}
		}
	}
	return course, nil
}

// Lecture operations

func (s *service) AddLecture(ctx context.Context, req AddLectureRequest) (*Lecture, error) {
	// The owning course must exist before children are attached to its
	// partition.
	if _, err := s.repository.GetCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lecture := &Lecture{
		ID:        uuid.New(),
		CourseID:  req.CourseID,
		Order:     UnassignedOrder,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Position != nil {
		lecture.Order = *req.Position
	}

	if err := s.repository.CreateLecture(ctx, lecture); err != nil {
		return nil, err
	}

	s.fireEvent(ctx, "lecture created", func(sink EventSink) error {
		return sink.LectureCreated(ctx, lecture)
	})
	return lecture, nil
}

func (s *service) ListLectures(ctx context.Context, courseID uuid.UUID) ([]*Lecture, error) {
	return s.repository.ListLecturesByCourse(ctx, courseID)
}

func (s *service) UpdateLecture(ctx context.Context, req UpdateLectureRequest) (*Lecture, error) {
	lecture, err := s.repository.FindLectureByID(ctx, req.CourseID, req.LectureID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		lecture.Title = *req.Title
	}
	lecture.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateLecture(ctx, lecture); err != nil {
		return nil, err
	}
	return lecture, nil
}

// Material operations

func (s *service) AddMaterial(ctx context.Context, req AddMaterialRequest) (*Material, error) {
	lecture, err := s.repository.FindLectureByID(ctx, req.CourseID, req.LectureID)
	if err != nil {
		return nil, err
	}

	materialID := uuid.New()

	// Write the backing object first: a failed put aborts before any row
	// mutation.
	put, err := s.storage.Put(ctx, req.StorageType, req.CourseID, lecture.ID, materialID, req.MimeType, req.Content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	material := &Material{
		ID:          materialID,
		LectureID:   lecture.ID,
		CourseID:    req.CourseID,
		Order:       UnassignedOrder,
		Title:       req.Title,
		Type:        put.Type,
		Duration:    req.Duration,
		IsPreview:   req.IsPreview,
		StorageType: put.StorageType,
		FilePath:    put.FilePath,
		ObjectKey:   put.ObjectKey,
		MimeType:    put.MimeType,
		SizeBytes:   put.SizeBytes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Position != nil {
		material.Order = *req.Position
	}

	if err := s.repository.CreateMaterial(ctx, material); err != nil {
		// The row never existed; reclaim the object so it cannot orphan.
		if relErr := s.storage.ReleaseMaterial(ctx, material); relErr != nil {
			s.logger.Warn("failed to reclaim object after create failure",
				"material_id", materialID, "error", relErr)
		}
		return nil, &MaterialError{MaterialID: materialID, Op: "create", Err: err}
	}

	s.fireEvent(ctx, "material uploaded", func(sink EventSink) error {
		return sink.MaterialUploaded(ctx, material)
	})
	return material, nil
}

func (s *service) ListMaterials(ctx context.Context, courseID, lectureID uuid.UUID) ([]*Material, error) {
	lecture, err := s.repository.FindLectureByID(ctx, courseID, lectureID)
	if err != nil {
		return nil, err
	}
	return s.repository.ListMaterialsByLecture(ctx, courseID, lecture.Order)
}

// resolveMaterial maps a material's UUID identity to its positional row via
// the owning lecture. The store addresses rows by parent key + order, so
// every identity-scoped operation resolves first.
func (s *service) resolveMaterial(ctx context.Context, courseID, lectureID, materialID uuid.UUID) (*Lecture, *Material, error) {
	lecture, err := s.repository.FindLectureByID(ctx, courseID, lectureID)
	if err != nil {
		return nil, nil, err
	}
	material, err := s.repository.FindMaterialByID(ctx, courseID, lecture.Order, materialID)
	if err != nil {
		return nil, nil, err
	}
	return lecture, material, nil
}

func (s *service) GetMaterial(ctx context.Context, courseID, lectureID, materialID uuid.UUID) (*Material, error) {
	_, material, err := s.resolveMaterial(ctx, courseID, lectureID, materialID)
	return material, err
}

func (s *service) UpdateMaterial(ctx context.Context, req UpdateMaterialRequest) (*Material, error) {
	_, material, err := s.resolveMaterial(ctx, req.CourseID, req.LectureID, req.MaterialID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		material.Title = *req.Title
	}
	if req.Duration != nil {
		material.Duration = *req.Duration
	}
	if req.IsPreview != nil {
		material.IsPreview = *req.IsPreview
	}
	material.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateMaterial(ctx, material); err != nil {
		return nil, &MaterialError{MaterialID: material.ID, Op: "update", Err: err}
	}
	return material, nil
}

// ReplaceMaterialFile swaps a material's backing object in place. The
// derived object key is stable, so the new content lands under the same
// key and no release step is needed.
func (s *service) ReplaceMaterialFile(ctx context.Context, req ReplaceMaterialFileRequest) (*Material, error) {
	lecture, material, err := s.resolveMaterial(ctx, req.CourseID, req.LectureID, req.MaterialID)
	if err != nil {
		return nil, err
	}

	put, err := s.storage.Put(ctx, material.StorageType, req.CourseID, lecture.ID, material.ID, req.MimeType, req.Content)
	if err != nil {
		return nil, err
	}

	material.Type = put.Type
	material.MimeType = put.MimeType
	material.SizeBytes = put.SizeBytes
	material.FilePath = put.FilePath
	material.ObjectKey = put.ObjectKey
	material.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateMaterial(ctx, material); err != nil {
		return nil, &MaterialError{MaterialID: material.ID, Op: "replace", Err: err}
	}
	return material, nil
}

// ChangeMaterialStorage migrates a material's backing object between the
// local and remote backends. The new object is written first and the row
// committed before the old object is released; a durable pending-release
// marker bridges the two phases so an interruption is resumable via
// SweepPendingReleases.
func (s *service) ChangeMaterialStorage(ctx context.Context, courseID, lectureID, materialID uuid.UUID, target StorageType) (*Material, error) {
	lecture, material, err := s.resolveMaterial(ctx, courseID, lectureID, materialID)
	if err != nil {
		return nil, err
	}
	if material.StorageType == target {
		return material, nil
	}

	content, err := s.storage.Download(ctx, material)
	if err != nil {
		return nil, &MaterialError{MaterialID: materialID, Op: "migrate", Err: err}
	}
	defer content.Close()

	// Phase one: the new object must be durably written before anything
	// else changes.
	put, err := s.storage.Put(ctx, target, courseID, lecture.ID, material.ID, material.MimeType, content)
	if err != nil {
		return nil, err
	}

	oldType := material.StorageType
	oldLocation := material.Location()

	marker := &PendingRelease{
		CourseID:    courseID,
		MaterialID:  material.ID,
		StorageType: oldType,
		Location:    oldLocation,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repository.PutPendingRelease(ctx, marker); err != nil {
		return nil, &MaterialError{MaterialID: materialID, Op: "migrate", Err: err}
	}

	material.StorageType = put.StorageType
	material.FilePath = put.FilePath
	material.ObjectKey = put.ObjectKey
	material.SizeBytes = put.SizeBytes
	material.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateMaterial(ctx, material); err != nil {
		return nil, &MaterialError{MaterialID: materialID, Op: "migrate", Err: err}
	}

	// Phase two: release the old object. Failure here is a cleanup
	// concern, not a correctness concern; the marker keeps it findable.
	if err := s.storage.Release(ctx, oldType, oldLocation); err != nil {
		s.logger.Warn("failed to release old object after storage migration",
			"material_id", materialID, "storage_type", oldType, "location", oldLocation, "error", err)
		return material, nil
	}
	if err := s.repository.DeletePendingRelease(ctx, courseID, material.ID); err != nil {
		s.logger.Warn("failed to clear pending-release marker",
			"material_id", materialID, "error", err)
	}
	return material, nil
}

func (s *service) DownloadMaterial(ctx context.Context, courseID, lectureID, materialID uuid.UUID) (io.ReadCloser, *Material, error) {
	_, material, err := s.resolveMaterial(ctx, courseID, lectureID, materialID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.Download(ctx, material)
	if err != nil {
		return nil, nil, err
	}
	return rc, material, nil
}

func (s *service) DeleteMaterial(ctx context.Context, courseID, lectureID, materialID uuid.UUID) error {
	lecture, material, err := s.resolveMaterial(ctx, courseID, lectureID, materialID)
	if err != nil {
		return err
	}
	return s.deleteMaterialRow(ctx, lecture.Order, material)
}

// SweepPendingReleases retries releases left behind by interrupted
// migrations. A marker whose location the material row still references is
// a migration that never committed; its old object is live, so only the
// marker is dropped.
func (s *service) SweepPendingReleases(ctx context.Context, courseID uuid.UUID) (int, error) {
	markers, err := s.repository.ListPendingReleases(ctx, courseID)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, marker := range markers {
		if s.markerStillLive(ctx, courseID, marker) {
			if err := s.repository.DeletePendingRelease(ctx, courseID, marker.MaterialID); err != nil {
				s.logger.Warn("failed to drop stale pending-release marker",
					"material_id", marker.MaterialID, "error", err)
			}
			continue
		}

		if err := s.storage.Release(ctx, marker.StorageType, marker.Location); err != nil {
			s.logger.Warn("pending release retry failed",
				"material_id", marker.MaterialID, "location", marker.Location, "error", err)
			continue
		}
		released++
		if err := s.repository.DeletePendingRelease(ctx, courseID, marker.MaterialID); err != nil {
			s.logger.Warn("failed to clear pending-release marker",
				"material_id", marker.MaterialID, "error", err)
		}
	}
	return released, nil
}

// markerStillLive reports whether the material row still references the
// marker's location as its live backing object.
func (s *service) markerStillLive(ctx context.Context, courseID uuid.UUID, marker *PendingRelease) bool {
	lectures, err := s.repository.ListLecturesByCourse(ctx, courseID)
	if err != nil {
		// Unknown: keep the marker and the object until a later sweep can
		// decide.
		return true
	}
	for _, lecture := range lectures {
		material, err := s.repository.FindMaterialByID(ctx, courseID, lecture.Order, marker.MaterialID)
		if err != nil {
			if errors.Is(err, ErrMaterialNotFound) {
				continue
			}
			return true
		}
		return material.StorageType == marker.StorageType && material.Location() == marker.Location
	}
	// Material row is gone; the old object is unreferenced.
	return false
}

func (s *service) fireEvent(ctx context.Context, name string, fire func(EventSink) error) {
	if s.eventSink == nil {
		return
	}
	if err := fire(s.eventSink); err != nil {
		s.logger.Warn("event sink failed", "event", name, "error", err)
	}
}
