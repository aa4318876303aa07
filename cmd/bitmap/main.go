package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"LockIn/internal/service/bitmap"

	"go.uber.org/zap"
)

// Генератор картинок для assets/: пустой кадр, тестовый смайлик
// или конвертация своей картинки в монохромный BMP 576x136.
func main() {
	mode := flag.String("mode", "sample", "empty | sample | convert")
	in := flag.String("in", "", "исходная картинка для -mode convert (png, jpeg, bmp)")
	out := flag.String("out", "", "куда сохранить BMP (по умолчанию assets/test.bmp или assets/empty.bmp)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	img, defaultOut, err := build(*mode, *in)
	if err != nil {
		sugar.Errorw("Failed to build bitmap", "mode", *mode, "error", err)
		os.Exit(1)
	}
	path := *out
	if path == "" {
		path = defaultOut
	}

	if err := bitmap.WriteFile(path, img); err != nil {
		sugar.Errorw("Failed to write bitmap", "path", path, "error", err)
		os.Exit(1)
	}
	sugar.Infow("Bitmap saved", "mode", *mode, "path", path, "width", bitmap.Width, "height", bitmap.Height)
}

func build(mode, in string) (image.Image, string, error) {
	switch mode {
	case "empty":
		return bitmap.Blank(), "assets/empty.bmp", nil
	case "sample":
		return bitmap.Sample(), "assets/test.bmp", nil
	case "convert":
		if in == "" {
			return nil, "", errors.New("-in is required for -mode convert")
		}
		src, err := bitmap.ReadFile(in)
		if err != nil {
			return nil, "", err
		}
		img, err := bitmap.Convert(src)
		if err != nil {
			return nil, "", err
		}
		return img, "assets/test.bmp", nil
	default:
		return nil, "", fmt.Errorf("unknown mode %q", mode)
	}
}
