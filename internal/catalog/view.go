package catalog

import (
	"strings"

	"voicefy/pkg/models"

	"golang.org/x/text/cases"
)

// View - производная страница каталога: поисковый запрос и номер текущей страницы (с 1)
type View struct {
	SearchTerm string `json:"search_term"`
	Page       int    `json:"page"`
}

// PageView - вычисленная проекция каталога
type PageView struct {
	View
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	TotalCount int            `json:"total_count"`
	Voices     []models.Voice `json:"voices"`
}

var folder = cases.Fold()

// Filter возвращает голоса, у которых имя или external_id содержит term без учета регистра.
// Пустой запрос совпадает со всеми.
func Filter(term string, voices []models.Voice) []models.Voice {
	term = strings.TrimSpace(term)
	if term == "" {
		out := make([]models.Voice, len(voices))
		copy(out, voices)
		return out
	}

	needle := folder.String(term)
	out := make([]models.Voice, 0, len(voices))
	for _, v := range voices {
		if strings.Contains(folder.String(v.DisplayName), needle) ||
			strings.Contains(folder.String(v.ExternalID), needle) {
			out = append(out, v)
		}
	}
	return out
}

// Page возвращает страницу number (с 1) размера size. Номер вне диапазона дает пустую страницу.
func Page(number, size int, voices []models.Voice) []models.Voice {
	if number < 1 || size <= 0 {
		return []models.Voice{}
	}
	start := (number - 1) * size
	if start >= len(voices) {
		return []models.Voice{}
	}
	end := start + size
	if end > len(voices) {
		end = len(voices)
	}
	out := make([]models.Voice, end-start)
	copy(out, voices[start:end])
	return out
}

// PageCount возвращает число страниц для n строк
func PageCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Project строит страницу каталога для представления
func Project(view View, size int, voices []models.Voice) PageView {
	filtered := Filter(view.SearchTerm, voices)
	return PageView{
		View:       view,
		PageSize:   size,
		TotalPages: PageCount(len(filtered), size),
		TotalCount: len(filtered),
		Voices:     Page(view.Page, size, filtered),
	}
}
