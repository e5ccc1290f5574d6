package testsupport

import (
	"context"
	"fmt"
	"sync"
)

// Upload - одна загрузка превью
type Upload struct {
	ExternalID  string
	Filename    string
	ContentType string
	Size        int
}

// PreviewStore записывает загрузки и возвращает предсказуемые публичные URL
type PreviewStore struct {
	mu      sync.Mutex
	uploads []Upload
	Err     error
}

func (s *PreviewStore) UploadPreview(ctx context.Context, externalID, filename, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	s.uploads = append(s.uploads, Upload{
		ExternalID:  externalID,
		Filename:    filename,
		ContentType: contentType,
		Size:        len(data),
	})
	return fmt.Sprintf("https://cdn.test/%s/%d-%s", externalID, len(s.uploads), filename), nil
}

// Uploads возвращает копию журнала загрузок
func (s *PreviewStore) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Upload, len(s.uploads))
	copy(out, s.uploads)
	return out
}
