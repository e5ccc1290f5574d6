package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"voicefy/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PreviewStore сохраняет файл превью голоса и возвращает его стабильный публичный URL
type PreviewStore interface {
	UploadPreview(ctx context.Context, externalID, filename, contentType string, data []byte) (string, error)
}

// New создает хранилище по STORAGE_BACKEND
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (PreviewStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return NewS3Store(cfg.Storage.S3, logger)
	case "drive":
		return NewDriveStore(ctx, cfg.Storage.Drive, logger)
	default:
		return nil, fmt.Errorf("неизвестное хранилище превью: %s", cfg.Storage.Backend)
	}
}

// objectKey строит имя объекта {externalID}-{uuid}.{ext}
func objectKey(externalID, filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		ext = "mp3"
	}
	return fmt.Sprintf("%s-%s.%s", sanitize(externalID), uuid.NewString(), ext)
}

// sanitize оставляет в ключе только безопасные для URL символы
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "voice"
	}
	return b.String()
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return "audio/mpeg"
	}
	return ct
}
