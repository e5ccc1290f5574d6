package selection

import (
	"sort"
	"sync"
)

// Set - множество выбранных ID голосов, не зависящее от фильтра и пагинации.
// ID, отсутствующие в текущем представлении, не удаляются автоматически.
type Set struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

// New создает пустое множество
func New() *Set {
	return &Set{ids: make(map[int64]struct{})}
}

// Toggle добавляет или снимает выбор и возвращает новое состояние
func (s *Set) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll заменяет выбор полным набором allIDs, либо очищает его,
// если размер выбора уже равен размеру полного набора.
// Сравнение идет с полным каталогом, а не с отфильтрованным представлением.
func (s *Set) SelectAll(allIDs []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(allIDs) > 0 && len(s.ids) == len(allIDs) {
		s.ids = make(map[int64]struct{})
		return
	}

	s.ids = make(map[int64]struct{}, len(allIDs))
	for _, id := range allIDs {
		s.ids[id] = struct{}{}
	}
}

// Clear снимает весь выбор
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[int64]struct{})
}

// IsSelected проверяет, выбран ли id
func (s *Set) IsSelected(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// IDs возвращает выбранные ID по возрастанию
func (s *Set) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len возвращает размер выбора
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// AllSelected - состояние флажка "выбрать все" относительно полного каталога
func (s *Set) AllSelected(total int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return total > 0 && len(s.ids) == total
}
