package coursecontent_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/course-content/pkg/coursecontent"
	"github.com/learnhub/course-content/pkg/coursecontent/keys"
	blobmem "github.com/learnhub/course-content/pkg/coursecontent/storage/memory"
	storemem "github.com/learnhub/course-content/pkg/coursecontent/store/memory"
)

// opLog records row deletes and object releases in the order they happen,
// shared between the tracking store and the tracking blob backend.
type opLog struct {
	ops []string
}

type trackingStore struct {
	coursecontent.Store
	log *opLog

	// When set, the next Delete whose sort key matches fails once.
	failOn func(sortKey string) bool
	failed bool
}

func (s *trackingStore) Delete(ctx context.Context, partitionKey, sortKey string) error {
	if s.failOn != nil && !s.failed && s.failOn(sortKey) {
		s.failed = true
		return fmt.Errorf("injected store failure on %s", sortKey)
	}
	if err := s.Store.Delete(ctx, partitionKey, sortKey); err != nil {
		return err
	}
	s.log.ops = append(s.log.ops, "row:"+sortKey)
	return nil
}

type trackingBlob struct {
	coursecontent.BlobStore
	log *opLog
}

func (b *trackingBlob) Delete(ctx context.Context, objectKey string) error {
	if err := b.BlobStore.Delete(ctx, objectKey); err != nil {
		return err
	}
	b.log.ops = append(b.log.ops, "object:"+objectKey)
	return nil
}

type cascadeFixture struct {
	svc    coursecontent.Service
	repo   coursecontent.Repository
	store  *trackingStore
	log    *opLog
	course *coursecontent.Course
}

func newCascadeFixture(t *testing.T) *cascadeFixture {
	t.Helper()
	ctx := context.Background()

	log := &opLog{}
	store := &trackingStore{Store: storemem.New(), log: log}
	repo := coursecontent.NewRepository(store)
	manager := coursecontent.NewStorageManager(
		&trackingBlob{BlobStore: blobmem.New(), log: log},
		blobmem.New(),
		nil,
	)

	svc, err := coursecontent.New(
		coursecontent.WithRepository(repo),
		coursecontent.WithStorageManager(manager),
	)
	require.NoError(t, err)

	category, err := svc.CreateCategory(ctx, coursecontent.CreateCategoryRequest{Name: "Engineering"})
	require.NoError(t, err)
	course, err := svc.CreateCourse(ctx, coursecontent.CreateCourseRequest{
		Name:       "Databases",
		CategoryID: category.ID,
		CreatedBy:  uuid.New(),
	})
	require.NoError(t, err)

	return &cascadeFixture{svc: svc, repo: repo, store: store, log: log, course: course}
}

func (f *cascadeFixture) addLectureWithMaterials(t *testing.T, materials int) *coursecontent.Lecture {
	t.Helper()
	ctx := context.Background()

	lecture, err := f.svc.AddLecture(ctx, coursecontent.AddLectureRequest{
		CourseID: f.course.ID,
		Title:    "Lecture",
	})
	require.NoError(t, err)

	for i := 0; i < materials; i++ {
		_, err := f.svc.AddMaterial(ctx, coursecontent.AddMaterialRequest{
			CourseID:    f.course.ID,
			LectureID:   lecture.ID,
			Title:       fmt.Sprintf("material %d", i+1),
			StorageType: coursecontent.StorageTypeLocal,
			MimeType:    "application/pdf",
			Content:     strings.NewReader("pdf bytes"),
		})
		require.NoError(t, err)
	}
	return lecture
}

func classifyOp(op string) string {
	switch {
	case strings.HasPrefix(op, "object:"):
		return "object"
	case strings.Contains(op, "#MATERIAL#"):
		return "material row"
	case keys.IsLectureRow(strings.TrimPrefix(op, "row:")):
		return "lecture row"
	case op == "row:METADATA":
		return "course row"
	default:
		return "other"
	}
}

// A course cascade must run bottom-up: each lecture's material rows are
// deleted before that lecture's row, and every lecture row and released
// object precedes the course row.
func TestDeleteCourseCascadeBottomUp(t *testing.T) {
	f := newCascadeFixture(t)
	ctx := context.Background()

	f.addLectureWithMaterials(t, 3)
	f.addLectureWithMaterials(t, 3)
	f.log.ops = nil

	require.NoError(t, f.svc.DeleteCourseCascade(ctx, f.course.ID))

	materialsByLecture := make(map[string]int)
	var objects, materialRows, lectureRows, courseRows int
	for _, op := range f.log.ops {
		sk := strings.TrimPrefix(op, "row:")
		switch classifyOp(op) {
		case "object":
			objects++
			assert.Zero(t, courseRows, "object %s released after the course row was deleted", op)
		case "material row":
			materialRows++
			materialsByLecture[sk[:strings.Index(sk, "#MATERIAL#")]]++
			assert.Zero(t, courseRows, "material row deleted after the course row: %s", op)
		case "lecture row":
			lectureRows++
			assert.Equal(t, 3, materialsByLecture[sk], "lecture row %s deleted before its material rows", op)
			assert.Zero(t, courseRows, "lecture row deleted after the course row: %s", op)
		case "course row":
			courseRows++
			assert.Equal(t, 2, lectureRows, "course row deleted before all lecture rows")
			assert.Equal(t, 6, objects, "course row deleted before all objects released")
		}
	}
	assert.Equal(t, 6, objects)
	assert.Equal(t, 6, materialRows)
	assert.Equal(t, 2, lectureRows)
	assert.Equal(t, 1, courseRows)

	_, err := f.svc.GetCourse(ctx, f.course.ID)
	assert.ErrorIs(t, err, coursecontent.ErrCourseNotFound)
}

// Each object must be released before its own row is deleted; a crash
// between the two leaves the row behind as the retry handle, never an
// orphaned row pointing at nothing while the object is still findable.
func TestCascadeReleasesObjectBeforeRow(t *testing.T) {
	f := newCascadeFixture(t)
	ctx := context.Background()

	f.addLectureWithMaterials(t, 2)
	f.log.ops = nil

	require.NoError(t, f.svc.DeleteCourseCascade(ctx, f.course.ID))

	released := 0
	rowsDeleted := 0
	for _, op := range f.log.ops {
		switch classifyOp(op) {
		case "object":
			released++
		case "material row":
			rowsDeleted++
			assert.GreaterOrEqual(t, released, rowsDeleted,
				"material row %s deleted before its object was released", op)
		}
	}
	assert.Equal(t, 2, released)
	assert.Equal(t, 2, rowsDeleted)
}

func TestDeleteCourseCascadeIdempotent(t *testing.T) {
	f := newCascadeFixture(t)
	ctx := context.Background()

	f.addLectureWithMaterials(t, 2)

	require.NoError(t, f.svc.DeleteCourseCascade(ctx, f.course.ID))
	assert.NoError(t, f.svc.DeleteCourseCascade(ctx, f.course.ID))
}

func TestDeleteCourseCascadeMissingCourse(t *testing.T) {
	f := newCascadeFixture(t)
	assert.NoError(t, f.svc.DeleteCourseCascade(context.Background(), uuid.New()))
}

// A cascade interrupted partway must be resumable: rerunning it finishes
// the remaining deletions without erroring on the rows already gone.
func TestDeleteCourseCascadeResumable(t *testing.T) {
	f := newCascadeFixture(t)
	ctx := context.Background()

	f.addLectureWithMaterials(t, 3)
	f.addLectureWithMaterials(t, 3)

	// First attempt dies on the first lecture-row delete. By then that
	// lecture's three materials are already gone.
	f.store.failOn = keys.IsLectureRow
	err := f.svc.DeleteCourseCascade(ctx, f.course.ID)
	require.Error(t, err)
	var cascadeErr *coursecontent.CascadeError
	assert.True(t, errors.As(err, &cascadeErr))

	materials := 0
	for _, op := range f.log.ops {
		if classifyOp(op) == "material row" {
			materials++
		}
	}
	assert.Equal(t, 3, materials, "first lecture's materials should be gone before the failure point")

	// Retry completes the cascade.
	f.store.failOn = nil
	require.NoError(t, f.svc.DeleteCourseCascade(ctx, f.course.ID))

	_, err = f.svc.GetCourse(ctx, f.course.ID)
	assert.ErrorIs(t, err, coursecontent.ErrCourseNotFound)
	lectures, err := f.repo.ListLecturesByCourse(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Empty(t, lectures)
}

// Deleting a course leaves no auxiliary rows behind: counters and
// pending-release markers go with it.
func TestDeleteCourseCascadeClearsAuxiliaryRows(t *testing.T) {
	f := newCascadeFixture(t)
	ctx := context.Background()

	f.addLectureWithMaterials(t, 1)

	require.NoError(t, f.svc.DeleteCourseCascade(ctx, f.course.ID))

	markers, err := f.repo.ListPendingReleases(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Empty(t, markers)

	// Counters are gone too: a fresh lecture in a reused partition starts
	// back at position 1.
	refreshed := &coursecontent.Lecture{
		ID:       uuid.New(),
		CourseID: f.course.ID,
		Order:    coursecontent.UnassignedOrder,
		Title:    "fresh",
	}
	require.NoError(t, f.repo.CreateLecture(ctx, refreshed))
	assert.Equal(t, 1, refreshed.Order)
}

func TestDeleteLectureCascade(t *testing.T) {
	f := newCascadeFixture(t)
	ctx := context.Background()

	keep := f.addLectureWithMaterials(t, 2)
	doomed := f.addLectureWithMaterials(t, 2)

	require.NoError(t, f.svc.DeleteLectureCascade(ctx, f.course.ID, doomed.ID))

	lectures, err := f.svc.ListLectures(ctx, f.course.ID)
	require.NoError(t, err)
	require.Len(t, lectures, 1)
	assert.Equal(t, keep.ID, lectures[0].ID)

	materials, err := f.svc.ListMaterials(ctx, f.course.ID, keep.ID)
	require.NoError(t, err)
	assert.Len(t, materials, 2)

	// Absent lecture is a no-op.
	assert.NoError(t, f.svc.DeleteLectureCascade(ctx, f.course.ID, doomed.ID))
}

// A lecture cascade takes the lecture's material position counter with it,
// so a lecture recreated at the same position allocates from one again.
func TestDeleteLectureCascadeClearsMaterialCounter(t *testing.T) {
	f := newCascadeFixture(t)
	ctx := context.Background()

	doomed := f.addLectureWithMaterials(t, 2)
	require.NoError(t, f.svc.DeleteLectureCascade(ctx, f.course.ID, doomed.ID))

	recreated := &coursecontent.Lecture{
		ID:       uuid.New(),
		CourseID: f.course.ID,
		Order:    doomed.Order,
		Title:    "recreated",
	}
	require.NoError(t, f.repo.CreateLecture(ctx, recreated))

	material := newMaterial(f.course.ID, recreated.ID, coursecontent.UnassignedOrder, "fresh")
	require.NoError(t, f.repo.CreateMaterial(ctx, material))
	assert.Equal(t, 1, material.Order)
}
