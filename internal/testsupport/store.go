package testsupport

import (
	"context"
	"sort"
	"sync"
	"time"

	"voicefy/internal/apperr"
	"voicefy/pkg/models"
)

// MemoryStore - потокобезопасное хранилище каталога в памяти.
// Реализует методы репозитория голосов, включая upsert по external_id.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[int64]models.Voice
	nextID int64

	listErr   error
	updateErr error
	deleteErr error
	bulkErr   error
	upsertErr map[string]error

	listCalls int
}

// NewMemoryStore создает хранилище с начальными строками; ID присваиваются по порядку
func NewMemoryStore(voices ...models.Voice) *MemoryStore {
	s := &MemoryStore{
		rows:      make(map[int64]models.Voice),
		upsertErr: make(map[string]error),
	}
	for _, v := range voices {
		s.Insert(v)
	}
	return s
}

// Insert добавляет строку; нулевой ID заменяется следующим свободным
func (s *MemoryStore) Insert(v models.Voice) models.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == 0 {
		s.nextID++
		v.ID = s.nextID
	} else if v.ID > s.nextID {
		s.nextID = v.ID
	}
	if v.Visibility == "" {
		v.Visibility = models.VisibilityPublic
	}
	now := time.Now()
	v.CreatedAt, v.UpdatedAt = now, now
	s.rows[v.ID] = v
	return v
}

// Get возвращает строку напрямую из хранилища
func (s *MemoryStore) Get(id int64) (models.Voice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[id]
	return v, ok
}

// Len возвращает число строк
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// ListCalls возвращает число вызовов List
func (s *MemoryStore) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// FailList заставляет List возвращать ошибку (nil снимает сбой)
func (s *MemoryStore) FailList(err error) {
	s.mu.Lock()
	s.listErr = err
	s.mu.Unlock()
}

// FailUpdate заставляет Update возвращать ошибку
func (s *MemoryStore) FailUpdate(err error) {
	s.mu.Lock()
	s.updateErr = err
	s.mu.Unlock()
}

// FailDelete заставляет Delete возвращать ошибку
func (s *MemoryStore) FailDelete(err error) {
	s.mu.Lock()
	s.deleteErr = err
	s.mu.Unlock()
}

// FailBulk заставляет массовые операции возвращать ошибку
func (s *MemoryStore) FailBulk(err error) {
	s.mu.Lock()
	s.bulkErr = err
	s.mu.Unlock()
}

// FailUpsert заставляет upsert конкретного external_id возвращать ошибку
func (s *MemoryStore) FailUpsert(externalID string, err error) {
	s.mu.Lock()
	s.upsertErr[externalID] = err
	s.mu.Unlock()
}

func (s *MemoryStore) List(ctx context.Context) ([]models.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}

	out := make([]models.Voice, 0, len(s.rows))
	for _, v := range s.rows {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*models.Voice, error) {
	v, ok := s.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &v, nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, patch models.VoicePatch) (*models.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateErr != nil {
		return nil, s.updateErr
	}
	v, ok := s.rows[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	v = patch.Apply(v)
	v.UpdatedAt = time.Now()
	s.rows[id] = v
	return &v, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.rows[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *MemoryStore) BulkUpdateVisibility(ctx context.Context, ids []int64, visibility models.Visibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bulkErr != nil {
		return s.bulkErr
	}
	for _, id := range ids {
		if v, ok := s.rows[id]; ok {
			v.Visibility = visibility
			s.rows[id] = v
		}
	}
	return nil
}

func (s *MemoryStore) BulkDelete(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bulkErr != nil {
		return s.bulkErr
	}
	for _, id := range ids {
		delete(s.rows, id)
	}
	return nil
}

// UpsertProviderVoice вставляет голос провайдера или обновляет только display_name
func (s *MemoryStore) UpsertProviderVoice(ctx context.Context, pv models.ProviderVoice) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.upsertErr[pv.ExternalID]; err != nil {
		return false, err
	}

	for id, v := range s.rows {
		if v.ExternalID == pv.ExternalID {
			v.DisplayName = pv.Name
			v.UpdatedAt = time.Now()
			s.rows[id] = v
			return false, nil
		}
	}

	s.nextID++
	now := time.Now()
	s.rows[s.nextID] = models.Voice{
		ID:          s.nextID,
		ExternalID:  pv.ExternalID,
		DisplayName: pv.Name,
		Origin:      models.ProviderOrigin(),
		Visibility:  models.VisibilityPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return true, nil
}
