// Package imaging shrinks uploaded photos below a byte cap before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	dimaging "github.com/disintegration/imaging"
)

const (
	// DefaultMaxBytes is the upload cap for photos and selfies.
	DefaultMaxBytes = 1024 * 1024
	// DefaultMaxWidth is the width photos are resized down to.
	DefaultMaxWidth = 1200

	minQuality  = 10
	qualityStep = 10
)

var (
	// ErrEmpty is returned for zero-length input.
	ErrEmpty = errors.New("imaging: empty image")
	// ErrTooLarge is returned when the lowest quality still exceeds the cap.
	ErrTooLarge = errors.New("imaging: cannot compress below size limit")
	// ErrNotImage is returned when the input is not an image.
	ErrNotImage = errors.New("imaging: not an image")
)

// Compressor re-encodes images as JPEG until they fit MaxBytes. Zero fields take the defaults.
type Compressor struct {
	MaxBytes int
	MaxWidth int
}

// NewCompressor returns a Compressor with the given limits.
func NewCompressor(maxBytes, maxWidth int) Compressor {
	return Compressor{MaxBytes: maxBytes, MaxWidth: maxWidth}
}

// StartQuality picks the first JPEG quality by input size: the larger the file, the harder the squeeze.
func StartQuality(size int) int {
	switch {
	case size > 5*1024*1024:
		return 50
	case size > 2*1024*1024:
		return 70
	default:
		return 80
	}
}

// Compress returns data untouched when it is already under MaxBytes. Otherwise it decodes,
// resizes to MaxWidth and encodes JPEG, stepping quality down until the result fits.
func (c Compressor) Compress(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	maxBytes, maxWidth := c.MaxBytes, c.MaxWidth
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if len(data) < maxBytes {
		contentType := http.DetectContentType(data)
		if !strings.HasPrefix(contentType, "image/") {
			return nil, "", ErrNotImage
		}
		return data, contentType, nil
	}

	img, err := dimaging.Decode(bytes.NewReader(data), dimaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > maxWidth {
		img = dimaging.Resize(img, maxWidth, 0, dimaging.Lanczos)
	}

	var buf bytes.Buffer
	for q := StartQuality(len(data)); q >= minQuality; q -= qualityStep {
		buf.Reset()
		if err := dimaging.Encode(&buf, img, dimaging.JPEG, dimaging.JPEGQuality(q)); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		if buf.Len() <= maxBytes {
			return buf.Bytes(), "image/jpeg", nil
		}
	}
	return nil, "", ErrTooLarge
}
