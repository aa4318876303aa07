package assets

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Images — две картинки в base64, загружаются один раз при старте и
// дальше только читаются всеми сессиями. Пустая строка — картинка недоступна.
type Images struct {
	Active string
	Empty  string
}

func (i Images) ActiveAvailable() bool { return i.Active != "" }

func (i Images) EmptyAvailable() bool { return i.Empty != "" }

// Load читает обе картинки из dir. Ошибки логируются, недоступная картинка
// остаётся пустой строкой; процесс при этом не падает.
func Load(dir, activeName, emptyName string, logger *zap.SugaredLogger) Images {
	var imgs Images
	if s, err := readBase64(resolve(filepath.Join(dir, activeName))); err != nil {
		logger.Warnw("Не удалось загрузить картинку lock-in", "name", activeName, "error", err)
	} else {
		imgs.Active = s
		logger.Infow("Bitmap image encoded", "name", activeName, "base64Len", len(s))
	}
	if s, err := readBase64(resolve(filepath.Join(dir, emptyName))); err != nil {
		logger.Warnw("Не удалось загрузить пустую картинку", "name", emptyName, "error", err)
	} else {
		imgs.Empty = s
		logger.Infow("Empty bitmap encoded", "name", emptyName, "base64Len", len(s))
	}
	return imgs
}

func readBase64(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// resolve ищет файл сначала рядом с бинарём, затем от текущей директории.
func resolve(rel string) string {
	if strings.TrimSpace(rel) == "" || filepath.IsAbs(rel) {
		return rel
	}
	if exe, err := os.Executable(); err == nil {
		cand := filepath.Join(filepath.Dir(exe), rel)
		if _, statErr := os.Stat(cand); statErr == nil {
			return cand
		}
	}
	return filepath.FromSlash(rel)
}
