package coursecontent

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Cascade deletion walks the hierarchy bottom-up: every material's backing
// object is released before its row is deleted, all of a lecture's
// materials before the lecture row, all lectures before the course row. A
// crash mid-cascade therefore leaves orphaned children (re-deletable by
// re-running the cascade), never a parent pointing at missing children.
//
// Object-release failures are logged and never abort the cascade; a
// missing object is not an error. Row-deletion failures other than
// not-found abort the branch and surface as a CascadeError, which the
// caller may retry safely since every step is idempotent.

func (s *service) DeleteCourseCascade(ctx context.Context, courseID uuid.UUID) error {
	lectures, err := s.repository.ListLecturesByCourse(ctx, courseID)
	if err != nil {
		return &CascadeError{EntityType: "course", EntityID: courseID, Err: err}
	}

	for _, lecture := range lectures {
		if err := s.deleteLectureTree(ctx, lecture); err != nil {
			return err
		}
	}

	// Orphaned objects recorded by interrupted migrations go with the
	// course.
	if _, err := s.SweepPendingReleases(ctx, courseID); err != nil {
		s.logger.Warn("pending-release sweep failed during cascade",
			"course_id", courseID, "error", err)
	}

	if err := s.repository.DeleteCounters(ctx, courseID); err != nil {
		return &CascadeError{EntityType: "course", EntityID: courseID, Err: err}
	}

	if err := s.repository.DeleteCourse(ctx, courseID); err != nil && !errors.Is(err, ErrCourseNotFound) {
		return &CascadeError{EntityType: "course", EntityID: courseID, Err: err}
	}

	s.fireEvent(ctx, "course deleted", func(sink EventSink) error {
		return sink.CourseDeleted(ctx, courseID)
	})
	return nil
}

func (s *service) DeleteLectureCascade(ctx context.Context, courseID, lectureID uuid.UUID) error {
	lecture, err := s.repository.FindLectureByID(ctx, courseID, lectureID)
	if errors.Is(err, ErrLectureNotFound) {
		// Already gone; re-running a cascade is a no-op.
		return nil
	}
	if err != nil {
		return &CascadeError{EntityType: "lecture", EntityID: lectureID, Err: err}
	}
	return s.deleteLectureTree(ctx, lecture)
}

// deleteLectureTree removes a lecture's materials bottom-up, then the
// lecture row and its material counter.
func (s *service) deleteLectureTree(ctx context.Context, lecture *Lecture) error {
	materials, err := s.repository.ListMaterialsByLecture(ctx, lecture.CourseID, lecture.Order)
	if err != nil {
		return &CascadeError{EntityType: "lecture", EntityID: lecture.ID, Err: err}
	}

	for _, material := range materials {
		if err := s.deleteMaterialRow(ctx, lecture.Order, material); err != nil {
			return err
		}
	}

	if err := s.repository.DeleteLecture(ctx, lecture.CourseID, lecture.Order); err != nil && !errors.Is(err, ErrLectureNotFound) {
		return &CascadeError{EntityType: "lecture", EntityID: lecture.ID, Err: err}
	}

	if err := s.repository.DeleteMaterialCounter(ctx, lecture.CourseID, lecture.Order); err != nil {
		return &CascadeError{EntityType: "lecture", EntityID: lecture.ID, Err: err}
	}
	return nil
}

// deleteMaterialRow releases a material's backing object, then deletes the
// row. Release comes first so that an interruption leaves a dangling
// metadata row, safe because re-running the cascade deletes it, rather
// than a deleted row with an orphaned, unreferenced object.
func (s *service) deleteMaterialRow(ctx context.Context, lectureOrder int, material *Material) error {
	if err := s.storage.ReleaseMaterial(ctx, material); err != nil {
		s.logger.Warn("failed to release material object during delete",
			"material_id", material.ID, "storage_type", material.StorageType,
			"location", material.Location(), "error", err)
	}

	if err := s.repository.DeleteMaterial(ctx, material.CourseID, lectureOrder, material.Order); err != nil && !errors.Is(err, ErrMaterialNotFound) {
		return &CascadeError{EntityType: "material", EntityID: material.ID, Err: err}
	}

	// A pending-release marker records an old object from an interrupted
	// migration; it is the only remaining reference once the row above is
	// gone. Release that object before dropping the marker. A failed
	// release keeps the marker so a later sweep or cascade re-run can
	// reclaim the object.
	marker, err := s.repository.GetPendingRelease(ctx, material.CourseID, material.ID)
	switch {
	case err == nil:
		if relErr := s.storage.Release(ctx, marker.StorageType, marker.Location); relErr != nil {
			s.logger.Warn("failed to release pending object during delete",
				"material_id", material.ID, "storage_type", marker.StorageType,
				"location", marker.Location, "error", relErr)
		} else if err := s.repository.DeletePendingRelease(ctx, material.CourseID, material.ID); err != nil {
			s.logger.Warn("failed to clear pending-release marker during delete",
				"material_id", material.ID, "error", err)
		}
	case !errors.Is(err, ErrItemNotFound):
		s.logger.Warn("failed to check pending-release marker during delete",
			"material_id", material.ID, "error", err)
	}

	s.fireEvent(ctx, "material deleted", func(sink EventSink) error {
		return sink.MaterialDeleted(ctx, material.ID)
	})
	return nil
}
