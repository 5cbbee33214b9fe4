package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	id := uuid.MustParse("7f1f7a64-9a3e-4f39-9a1a-0c6a4d1e2b3c")

	assert.Equal(t, "selfies/7f1f7a64-9a3e-4f39-9a1a-0c6a4d1e2b3c.jpg", SelfieKey(id))
	assert.Equal(t, "raw/7f1f7a64-9a3e-4f39-9a1a-0c6a4d1e2b3c.png", RawSelfieKey(id, "image/png"))

	key := ChatPhotoKey(id, "image/jpeg")
	assert.True(t, strings.HasPrefix(key, "chat/7f1f7a64-9a3e-4f39-9a1a-0c6a4d1e2b3c/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, ChatPhotoKey(id, "image/jpeg"))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionFor("IMAGE/JPEG"))
	assert.Equal(t, ".webp", ExtensionFor("image/webp"))
	assert.Equal(t, ".bin", ExtensionFor("application/pdf"))
}

func TestPublicURL(t *testing.T) {
	aws := S3Config{Region: "eu-west-1"}
	assert.Equal(t, "https://photos.s3.eu-west-1.amazonaws.com/chat/a.jpg", PublicURL(aws, "photos", "chat/a.jpg"))

	local := S3Config{Endpoint: "http://localhost:9000/"}
	assert.Equal(t, "http://localhost:9000/photos/chat/a.jpg", PublicURL(local, "photos", "chat/a.jpg"))
}
