package objectkey_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/learnhub/course-content/pkg/coursecontent/objectkey"
)

func TestForMaterialStable(t *testing.T) {
	courseID := uuid.New()
	lectureID := uuid.New()
	materialID := uuid.New()

	first := objectkey.ForMaterial(courseID, lectureID, materialID)
	second := objectkey.ForMaterial(courseID, lectureID, materialID)
	assert.Equal(t, first, second)

	assert.Contains(t, first, courseID.String())
	assert.Contains(t, first, lectureID.String())
	assert.Contains(t, first, materialID.String())
}

func TestForMaterialDistinct(t *testing.T) {
	courseID := uuid.New()
	lectureID := uuid.New()

	a := objectkey.ForMaterial(courseID, lectureID, uuid.New())
	b := objectkey.ForMaterial(courseID, lectureID, uuid.New())
	assert.NotEqual(t, a, b)
}
