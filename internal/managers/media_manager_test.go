package managers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe-server/internal/config"
)

func TestExtractPublicID(t *testing.T) {
	testCases := []struct {
		name         string
		url          string
		publicID     string
		resourceType string
		wantErr      bool
	}{
		{
			"ImageWithVersion",
			"https://res.cloudinary.com/demo/image/upload/v1712345678/posts/abc123.jpg",
			"posts/abc123",
			"image",
			false,
		},
		{
			"VideoWithoutVersion",
			"https://res.cloudinary.com/demo/video/upload/posts/clip.mp4",
			"posts/clip",
			"video",
			false,
		},
		{
			"NestedFolders",
			"https://res.cloudinary.com/demo/image/upload/v1/a/b/c.png",
			"a/b/c",
			"image",
			false,
		},
		{
			"ForeignHost",
			"https://example.com/image/upload/v1/posts/abc.jpg",
			"",
			"",
			true,
		},
		{
			"UnexpectedLayout",
			"https://res.cloudinary.com/demo/whatever.jpg",
			"",
			"",
			true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			publicID, resourceType, err := extractPublicID(tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.publicID, publicID)
			assert.Equal(t, tc.resourceType, resourceType)
		})
	}
}

func TestUnconfiguredMediaManager(t *testing.T) {
	mediaMgr := NewMediaManager(&config.Config{})

	// Deletion is best-effort and must not error without a client
	err := mediaMgr.DeleteByURL(context.Background(), "https://res.cloudinary.com/demo/image/upload/v1/posts/abc.jpg")
	assert.NoError(t, err)

	// Upload authorization cannot be signed without a client
	_, err = mediaMgr.UploadAuth("user-123")
	assert.ErrorIs(t, err, ErrMediaUnavailable)
}
