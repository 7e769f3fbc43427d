package supabase_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkiio/coffee-clock/internal/supabase"
)

func TestStorageClient_ScanPhotoPath(t *testing.T) {
	client, err := supabase.NewStorageClient("https://project.supabase.co/", "key", "scan-photos")
	require.NoError(t, err)

	userID := uuid.New()
	jobID := uuid.New()

	path := client.ScanPhotoPath(userID, jobID, "image/png")

	assert.Equal(t, "users/"+userID.String()+"/scans/"+jobID.String()+".png", path)
}

func TestStorageClient_ScanPhotoPathExtensions(t *testing.T) {
	client, err := supabase.NewStorageClient("https://project.supabase.co", "key", "scan-photos")
	require.NoError(t, err)

	userID := uuid.New()
	jobID := uuid.New()

	cases := map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/heic": ".heic",
		"image/bmp":  ".jpg",
	}
	for mimeType, ext := range cases {
		path := client.ScanPhotoPath(userID, jobID, mimeType)
		assert.Equal(t, "users/"+userID.String()+"/scans/"+jobID.String()+ext, path, mimeType)
	}
}

func TestStorageClient_GetPublicURL(t *testing.T) {
	client, err := supabase.NewStorageClient("https://project.supabase.co/", "key", "scan-photos")
	require.NoError(t, err)

	url := client.GetPublicURL("users/u/scans/j.jpg")

	assert.Equal(t, "https://project.supabase.co/storage/v1/object/public/scan-photos/users/u/scans/j.jpg", url)
}
