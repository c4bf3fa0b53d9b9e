package picture

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

// Decode opens and decodes the image at path with any registered decoder.
// It returns the image and its format name.
func Decode(path string) (image.Image, string, error) {
	imgFile, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("could not open image %q: %w", path, err)
	}
	defer func() {
		if closeErr := imgFile.Close(); closeErr != nil {
			slog.Error("could not close image", "file", path, "error", closeErr)
		}
	}()

	img, imgType, err := image.Decode(imgFile)
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image %q: %w", path, err)
	}
	return img, imgType, nil
}

// DecodeConfig reads only the header of the image at path.
func DecodeConfig(path string) (image.Config, string, error) {
	imgFile, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("could not open image %q: %w", path, err)
	}
	defer func() {
		if closeErr := imgFile.Close(); closeErr != nil {
			slog.Error("could not close image", "file", path, "error", closeErr)
		}
	}()

	conf, imgType, err := image.DecodeConfig(imgFile)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("could not read image %q: %w", path, err)
	}
	return conf, imgType, nil
}
