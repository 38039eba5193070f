package backend

import (
	"bufio"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/valerio/go-dmgcore/dmg/video"
)

// SavePNG writes the frame to dir/name.png and returns the file path.
func SavePNG(frame *video.FrameBuffer, dir, name string) (string, error) {
	path := filepath.Join(dir, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save png: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := png.Encode(w, frame.Image()); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("save png: %w", err)
	}
	return path, f.Close()
}
