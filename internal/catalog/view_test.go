package catalog

import (
	"fmt"
	"testing"

	"voicefy/pkg/models"

	"github.com/stretchr/testify/assert"
)

func sample(n int) []models.Voice {
	out := make([]models.Voice, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Voice{
			ID:          int64(i),
			ExternalID:  fmt.Sprintf("ext-%02d", i),
			DisplayName: fmt.Sprintf("Voice %02d", i),
		})
	}
	return out
}

func TestFilter(t *testing.T) {
	voices := []models.Voice{
		{ID: 1, ExternalID: "adam123", DisplayName: "Adam"},
		{ID: 2, ExternalID: "eva456", DisplayName: "Eva"},
		{ID: 3, ExternalID: "custom789", DisplayName: "Voz Personalizada"},
		{ID: 4, ExternalID: "rachel21", DisplayName: "RACHEL"},
	}

	tests := []struct {
		name string
		term string
		want []int64
	}{
		{"пустой запрос", "", []int64{1, 2, 3, 4}},
		{"пробелы", "   ", []int64{1, 2, 3, 4}},
		{"по имени без учета регистра", "ADAM", []int64{1}},
		{"по external_id", "456", []int64{2}},
		{"подстрока в середине", "person", []int64{3}},
		{"смешанный регистр", "eVa", []int64{2}},
		{"нет совпадений", "zzz", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.term, voices)
			ids := make([]int64, 0, len(got))
			for _, v := range got {
				ids = append(ids, v.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestPage(t *testing.T) {
	voices := sample(30)

	assert.Len(t, Page(1, 12, voices), 12)
	assert.Equal(t, int64(13), Page(2, 12, voices)[0].ID)
	assert.Len(t, Page(3, 12, voices), 6)
	assert.Empty(t, Page(4, 12, voices))
	assert.Empty(t, Page(0, 12, voices))
	assert.Empty(t, Page(-1, 12, voices))
	assert.NotNil(t, Page(9, 12, voices))
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 12))
	assert.Equal(t, 1, PageCount(12, 12))
	assert.Equal(t, 2, PageCount(13, 12))
	assert.Equal(t, 0, PageCount(5, 0))
}

func TestProjectKeepsPageOnNarrowFilter(t *testing.T) {
	voices := sample(30)

	view := View{Page: 3}
	assert.Len(t, Project(view, 12, voices).Voices, 6)

	view.SearchTerm = "Voice 0"
	got := Project(view, 12, voices)
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, 9, got.TotalCount)
	assert.Equal(t, 1, got.TotalPages)
	assert.Empty(t, got.Voices)
}
