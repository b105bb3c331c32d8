package pixbuf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

// WriteBMP encodes the frame as a 32-bit BMP image.
func (b *Buffer) WriteBMP(w io.Writer) error {
	if b.Len() == 0 {
		return fmt.Errorf("pixbuf: cannot encode empty buffer")
	}
	return bmp.Encode(w, b.Image())
}

// SaveBMP writes the frame to dir as frame_WIDTHxHEIGHT.bmp and returns the file path.
// The directory is created if it does not exist.
func (b *Buffer) SaveBMP(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pixbuf: create dump dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame_%dx%d.bmp", b.width, b.height))
	f, err := os.Create(path) //nolint:gosec // path is built from a user-provided directory intentionally
	if err != nil {
		return "", err
	}
	if err := b.WriteBMP(f); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
