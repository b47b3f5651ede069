package coursecontent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialTypeFromMime(t *testing.T) {
	tests := []struct {
		mimeType string
		want     MaterialType
		wantErr  bool
	}{
		{"application/pdf", MaterialTypePDF, false},
		{"video/mp4", MaterialTypeVideo, false},
		{"video/webm", MaterialTypeVideo, false},
		{"video/", MaterialTypeVideo, false},
		{"application/zip", "", true},
		{"image/png", "", true},
		{"application/pdf; charset=binary", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			got, err := MaterialTypeFromMime(tt.mimeType)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
