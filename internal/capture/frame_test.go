package capture

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestMirrorReversesRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for x := 0; x < 3; x++ {
		img.SetRGBA(x, 0, color.RGBA{uint8(x), 0, 0, 255})
		img.SetRGBA(x, 1, color.RGBA{0, uint8(x), 0, 255})
	}
	Mirror(img)
	for x := 0; x < 3; x++ {
		if got := img.RGBAAt(x, 0).R; got != uint8(2-x) {
			t.Errorf("row 0 x=%d R=%d, want %d", x, got, 2-x)
		}
		if got := img.RGBAAt(x, 1).G; got != uint8(2-x) {
			t.Errorf("row 1 x=%d G=%d, want %d", x, got, 2-x)
		}
	}
}

func TestDrawOutlineClipsToFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	DrawOutline(img, image.Rect(15, 15, 40, 40), outlineColor, 3)

	if img.RGBAAt(15, 15) != outlineColor {
		t.Error("visible corner not outlined")
	}
	if img.RGBAAt(19, 19) != outlineColor {
		t.Error("clipped edge not outlined")
	}
	if img.RGBAAt(5, 5) != (color.RGBA{}) {
		t.Error("pixel outside the region changed")
	}
}

func TestWriteCropJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	path := filepath.Join(t.TempDir(), "face_0.jpg")

	if err := WriteCrop(path, img, image.Rect(8, 8, 40, 40), "jpg"); err != nil {
		t.Fatalf("WriteCrop: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("not a JPEG: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 32 {
		t.Fatalf("crop is %dx%d, want 32x32", cfg.Width, cfg.Height)
	}
}

func TestWriteCropOutsideFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	path := filepath.Join(t.TempDir(), "face_0.png")
	if err := WriteCrop(path, img, image.Rect(20, 20, 30, 30), "png"); err == nil {
		t.Fatal("expected an error for a region outside the frame")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file created for an invalid crop")
	}
}

func TestToRGBARebasesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 15, 10))
	src.SetRGBA(5, 5, color.RGBA{1, 2, 3, 255})

	got := toRGBA(src)
	if got.Rect != image.Rect(0, 0, 10, 5) {
		t.Fatalf("bounds = %v", got.Rect)
	}
	if got.RGBAAt(0, 0) != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("pixel = %v", got.RGBAAt(0, 0))
	}

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	if rgba := toRGBA(gray); rgba.Rect != gray.Rect {
		t.Fatalf("converted bounds = %v", rgba.Rect)
	}
}
