// Package testdata generates encoded frames for tests that need real image bytes.
package testdata

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Frame width and height used by JPEGFrame callers that do not care.
const (
	FrameWidth  = 64
	FrameHeight = 48
)

// JPEGFrame encodes a solid-colour width x height BGR frame as JPEG.
func JPEGFrame(width, height int) ([]byte, error) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 120, 200, 0), height, width, gocv.MatTypeCV8UC3)
	defer mat.Close()

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Garbage returns bytes that no image decoder accepts.
func Garbage() []byte {
	return []byte("definitely not a jpeg")
}
