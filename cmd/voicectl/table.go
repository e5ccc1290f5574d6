package main

import (
	"strconv"

	"voicefy/internal/catalog"
	"voicefy/internal/voicesync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderVoices(view catalog.PageView) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Имя", "Voice ID", "Тип", "Видимость", "Превью"})

	for _, v := range view.Voices {
		preview := "-"
		if v.HasPreview() {
			preview = *v.PreviewURL
		}
		tw.AppendRow(table.Row{
			strconv.FormatInt(v.ID, 10),
			v.DisplayName,
			v.ExternalID,
			string(v.Origin.Category()),
			string(v.Visibility),
			preview,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.SetCaption("Страница %d из %d, найдено голосов: %d", view.Page, view.TotalPages, view.TotalCount)

	return tw.Render()
}

func renderSyncResult(res voicesync.Result, dryRun bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Получено", "Новых", "Обновлено", "Ошибок"})
	tw.AppendRow(table.Row{res.Fetched, res.Inserted, res.Updated, res.Failed})
	if dryRun {
		tw.SetCaption("Пробный запуск: изменения не записаны")
	}
	return tw.Render()
}
