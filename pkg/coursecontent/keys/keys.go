// Package keys computes the two-part store addresses for every row the
// course-content table holds.
//
// All rows of one course share the partition "COURSE#{courseID}". Sort keys
// encode the hierarchy so that a single range scan by prefix returns an
// ordered slice of it:
//
//	METADATA                                 course row
//	LECTURE#0003                             lecture at position 3
//	LECTURE#0003#MATERIAL#0007               material at position 7 of lecture 3
//	COUNTER#LECTURES                         position counter for lectures
//	COUNTER#MATERIALS#0003                   position counter for lecture 3's materials
//	PENDING#RELEASE#{materialID}             storage cleanup marker
//
// Positions are zero-padded to a fixed width so that the store's
// lexicographic sort-key order is also numeric order. The width caps the
// fan-out: positions must stay below 10^4.
package keys

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxOrder is the highest position the fixed-width padding can represent.
// Creation must reject anything above it; a wider position would sort
// lexicographically ahead of smaller ones and corrupt range scans.
const MaxOrder = 9999

const orderWidth = 4

const (
	coursePrefix   = "COURSE#"
	categoryPrefix = "CATEGORY#"

	sortMetadata       = "METADATA"
	lecturePrefix      = "LECTURE#"
	materialSegment    = "#MATERIAL#"
	counterLectures    = "COUNTER#LECTURES"
	counterMaterials   = "COUNTER#MATERIALS#"
	pendingReleaseBase = "PENDING#RELEASE#"
)

// ErrOrderOutOfRange is returned when a position does not fit the padded
// sort-key width.
var ErrOrderOutOfRange = errors.New("order out of range for padded sort key")

func pad(order int) (string, error) {
	if order < 0 || order > MaxOrder {
		return "", fmt.Errorf("%w: %d (max %d)", ErrOrderOutOfRange, order, MaxOrder)
	}
	return fmt.Sprintf("%0*d", orderWidth, order), nil
}

// CoursePartition returns the partition key shared by all rows of a course.
func CoursePartition(courseID string) string {
	return coursePrefix + courseID
}

// Course returns the address of the course metadata row.
func Course(courseID string) (pk, sk string) {
	return CoursePartition(courseID), sortMetadata
}

// Lecture returns the address of a lecture row.
func Lecture(courseID string, order int) (pk, sk string, err error) {
	p, err := pad(order)
	if err != nil {
		return "", "", err
	}
	return CoursePartition(courseID), lecturePrefix + p, nil
}

// Material returns the address of a material row.
func Material(courseID string, lectureOrder, materialOrder int) (pk, sk string, err error) {
	lp, err := pad(lectureOrder)
	if err != nil {
		return "", "", err
	}
	mp, err := pad(materialOrder)
	if err != nil {
		return "", "", err
	}
	return CoursePartition(courseID), lecturePrefix + lp + materialSegment + mp, nil
}

// LecturePrefix is the sort-key prefix that covers all lecture and material
// rows of a course. Callers filtering for lectures only must additionally
// check IsLectureRow.
func LecturePrefix() string { return lecturePrefix }

// MaterialPrefix returns the sort-key prefix covering all materials of one
// lecture.
func MaterialPrefix(lectureOrder int) (string, error) {
	lp, err := pad(lectureOrder)
	if err != nil {
		return "", err
	}
	return lecturePrefix + lp + materialSegment, nil
}

// IsLectureRow reports whether a sort key addresses a lecture row rather
// than a material row beneath it.
func IsLectureRow(sk string) bool {
	return strings.HasPrefix(sk, lecturePrefix) && !strings.Contains(sk, materialSegment)
}

// LectureCounter returns the sort key of the per-course lecture position
// counter. Counter rows live outside the LECTURE# namespace so prefix scans
// never see them.
func LectureCounter() string { return counterLectures }

// MaterialCounter returns the sort key of the per-lecture material position
// counter.
func MaterialCounter(lectureOrder int) (string, error) {
	lp, err := pad(lectureOrder)
	if err != nil {
		return "", err
	}
	return counterMaterials + lp, nil
}

// CounterPrefix covers every counter row of a course.
func CounterPrefix() string { return "COUNTER#" }

// PendingRelease returns the sort key of a pending storage-release marker.
func PendingRelease(materialID string) string {
	return pendingReleaseBase + materialID
}

// PendingReleasePrefix covers every pending-release marker of a course.
func PendingReleasePrefix() string { return pendingReleaseBase }

// Category returns the address of a category metadata row.
func Category(categoryID string) (pk, sk string) {
	return categoryPrefix + categoryID, sortMetadata
}

// CategoryIndex returns the secondary-index partition shared by all courses
// of a category.
func CategoryIndex(categoryID string) string {
	return categoryPrefix + categoryID
}

// CategoryListIndex is the secondary-index partition shared by all category
// rows, used to list categories without a table scan.
const CategoryListIndex = "CATEGORY"

// indexSortLayout is fixed-width: RFC3339Nano trims trailing zeros, which
// would break lexicographic ordering.
const indexSortLayout = "2006-01-02T15:04:05.000000000Z"

// IndexSort renders a creation instant as a secondary-index sort key whose
// lexicographic order is chronological order.
func IndexSort(t time.Time) string {
	return t.UTC().Format(indexSortLayout)
}
