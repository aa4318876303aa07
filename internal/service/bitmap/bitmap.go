package bitmap

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// Width и Height — размер экрана очков.
	Width  = 576
	Height = 136

	// Threshold — яркость, выше которой пиксель становится белым.
	Threshold = 127

	SampleCaption = "Hello from AugmentOS!"
)

const (
	black uint8 = iota
	white
)

var palette = color.Palette{color.Black, color.White}

func newCanvas() *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, Width, Height), palette)
}

// Blank возвращает полностью чёрный кадр — им очищается дисплей.
func Blank() *image.Paletted {
	return newCanvas()
}

// Sample рисует смайлик с подписью.
func Sample() *image.Paletted {
	img := newCanvas()

	cx, cy := Width/2, 55
	circleOutline(img, cx, cy, 40, 2)
	fillCircle(img, cx-15, cy-12, 8)
	fillCircle(img, cx+15, cy-12, 8)

	// улыбка: нижняя дуга от 20° до 160°
	for deg := 20.0; deg <= 160; deg += 0.5 {
		rad := deg * math.Pi / 180
		x := cx + int(math.Round(22*math.Cos(rad)))
		y := cy + 4 + int(math.Round(14*math.Sin(rad)))
		fillCircle(img, x, y, 1)
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	textWidth := d.MeasureString(SampleCaption).Ceil()
	d.Dot = fixed.P((Width-textWidth)/2, Height-10)
	d.DrawString(SampleCaption)

	return img
}

// Convert приводит произвольную картинку к формату дисплея:
// оттенки серого, ресайз до Width x Height, порог Threshold.
func Convert(src image.Image) (*image.Paletted, error) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("bitmap: invalid image size: %dx%d", b.Dx(), b.Dy())
	}

	dst := newCanvas()
	for y := range Height {
		srcY := b.Min.Y + y*b.Dy()/Height
		for x := range Width {
			srcX := b.Min.X + x*b.Dx()/Width
			g := color.GrayModel.Convert(src.At(srcX, srcY)).(color.Gray)
			if g.Y > Threshold {
				dst.SetColorIndex(x, y, white)
			}
		}
	}
	return dst, nil
}

func Encode(w io.Writer, img image.Image) error {
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("bitmap: encode: %w", err)
	}
	return nil
}

// EncodeBase64 возвращает BMP в base64 — в таком виде кадр уходит в show bitmap.
func EncodeBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// WriteFile сохраняет кадр в BMP, создавая каталог при необходимости.
func WriteFile(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile декодирует картинку любого зарегистрированного формата.
func ReadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("bitmap: decode %s: %w", path, err)
	}
	return img, nil
}

func fillCircle(img *image.Paletted, cx, cy, r int) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				setWhite(img, x, y)
			}
		}
	}
}

func circleOutline(img *image.Paletted, cx, cy, r, thickness int) {
	inner := (r - thickness) * (r - thickness)
	outer := r * r
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if d := dx*dx + dy*dy; d <= outer && d > inner {
				setWhite(img, x, y)
			}
		}
	}
}

func setWhite(img *image.Paletted, x, y int) {
	if image.Pt(x, y).In(img.Rect) {
		img.SetColorIndex(x, y, white)
	}
}
