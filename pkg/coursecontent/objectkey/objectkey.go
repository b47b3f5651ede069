// Package objectkey derives the storage key of a material's backing object
// from identity alone.
package objectkey

import (
	"fmt"

	"github.com/google/uuid"
)

// ForMaterial returns the object key for a material's backing object. The
// mapping is pure and stable: the same three identities always produce the
// same key, regardless of storage backend. That stability is what makes
// in-place replacement work: uploading new content for the same material
// overwrites the same object, with no separate deletion step.
func ForMaterial(courseID, lectureID, materialID uuid.UUID) string {
	return fmt.Sprintf("courses/%s/lectures/%s/materials/%s", courseID, lectureID, materialID)
}
