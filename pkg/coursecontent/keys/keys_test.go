package keys_test

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/course-content/pkg/coursecontent/keys"
)

func TestCourseAddress(t *testing.T) {
	pk, sk := keys.Course("c-1")
	assert.Equal(t, "COURSE#c-1", pk)
	assert.Equal(t, "METADATA", sk)
}

func TestLectureAddressPadding(t *testing.T) {
	_, sk, err := keys.Lecture("c-1", 3)
	require.NoError(t, err)
	assert.Equal(t, "LECTURE#0003", sk)

	_, sk, err = keys.Lecture("c-1", 9999)
	require.NoError(t, err)
	assert.Equal(t, "LECTURE#9999", sk)
}

func TestOrderCeiling(t *testing.T) {
	_, _, err := keys.Lecture("c-1", 10000)
	assert.ErrorIs(t, err, keys.ErrOrderOutOfRange)

	_, _, err = keys.Lecture("c-1", -1)
	assert.ErrorIs(t, err, keys.ErrOrderOutOfRange)

	_, _, err = keys.Material("c-1", 1, keys.MaxOrder+1)
	assert.ErrorIs(t, err, keys.ErrOrderOutOfRange)
}

// Lexicographic order of padded sort keys must match numeric order across
// the full supported range, in particular around the 9->10 and 99->100
// boundaries where unpadded keys would invert.
func TestLexicographicMatchesNumeric(t *testing.T) {
	orders := []int{0, 1, 2, 9, 10, 11, 99, 100, 101, 999, 1000, 9999}

	sks := make([]string, 0, len(orders))
	for _, o := range orders {
		_, sk, err := keys.Lecture("c-1", o)
		require.NoError(t, err)
		sks = append(sks, sk)
	}

	assert.True(t, sort.StringsAreSorted(sks), "padded sort keys out of order: %v", sks)
}

func TestMaterialLexicographicMatchesNumeric(t *testing.T) {
	var sks []string
	for _, o := range []int{1, 2, 9, 10, 11, 100} {
		_, sk, err := keys.Material("c-1", 2, o)
		require.NoError(t, err)
		sks = append(sks, sk)
	}
	assert.True(t, sort.StringsAreSorted(sks))
}

func TestIsLectureRow(t *testing.T) {
	tests := []struct {
		sk   string
		want bool
	}{
		{"LECTURE#0001", true},
		{"LECTURE#0001#MATERIAL#0002", false},
		{"METADATA", false},
		{"COUNTER#LECTURES", false},
		{"COUNTER#MATERIALS#0001", false},
		{"PENDING#RELEASE#abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.sk, func(t *testing.T) {
			assert.Equal(t, tt.want, keys.IsLectureRow(tt.sk))
		})
	}
}

// Counter and marker rows must never collide with entity prefix scans.
func TestAuxiliaryRowsOutsideEntityNamespaces(t *testing.T) {
	mc, err := keys.MaterialCounter(3)
	require.NoError(t, err)

	for _, sk := range []string{keys.LectureCounter(), mc, keys.PendingRelease("m-1")} {
		assert.False(t, keys.IsLectureRow(sk))

		mp, err := keys.MaterialPrefix(3)
		require.NoError(t, err)
		assert.NotContains(t, sk, mp)
	}
}

func TestIndexSortChronological(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var rendered []string
	for i := 0; i < 5; i++ {
		// Mix sub-second offsets to exercise the fixed-width fraction.
		rendered = append(rendered, keys.IndexSort(base.Add(time.Duration(i)*time.Millisecond*7)))
	}
	assert.True(t, sort.StringsAreSorted(rendered), fmt.Sprintf("%v", rendered))
}
