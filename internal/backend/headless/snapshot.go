package headless

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/haldis/gbcore/internal/video"
)

// SaveFramePNG writes frame to directory as a timestamped PNG named
// baseName, upscaled by scale (1 leaves it at native 160x144) using a
// Catmull-Rom resampler so the exported image is pleasant to inspect by
// eye despite the source's blocky native resolution.
func SaveFramePNG(frame *video.FrameBuffer, baseName, directory string, scale int) error {
	src := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			pixel := video.GBColor(frame.GetPixel(x, y))
			src.Set(x, y, argbToColor(pixel))
		}
	}

	out := image.Image(src)
	if scale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth*scale, video.FramebufferHeight*scale))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		out = dst
	}

	if directory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		directory = cwd
	}

	filename := fmt.Sprintf("%s_%s.png", baseName, time.Now().Format("20060102_150405"))
	path := filepath.Join(directory, filename)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	return png.Encode(f, out)
}

func argbToColor(c video.GBColor) color.RGBA {
	return color.RGBA{
		A: byte(c >> 24),
		R: byte(c >> 16),
		G: byte(c >> 8),
		B: byte(c),
	}
}
