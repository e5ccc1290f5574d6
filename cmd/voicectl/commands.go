package main

import (
	"fmt"

	"voicefy/internal/catalog"
	"voicefy/internal/migrations"
	"voicefy/internal/store"
	"voicefy/internal/tts"
	"voicefy/internal/voicesync"

	"github.com/spf13/cobra"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Добавить образцы голосов",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}

			added, err := s.Voice().Seed(cmd.Context(), store.SampleVoices())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Добавлено образцов: %d\n", added)
			return nil
		},
	}
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Синхронизировать каталог с ElevenLabs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}

			provider := tts.NewElevenLabsService(ctx.logger, ctx.cfg.ElevenLabs)
			coordinator := voicesync.NewCoordinator(provider, s.Voice(), ctx.catalog(s), nil, ctx.logger, ctx.cfg.Sync.Concurrency)

			var res voicesync.Result
			if dryRun {
				res, err = coordinator.Plan(cmd.Context())
			} else {
				res, err = coordinator.Sync(cmd.Context())
			}

			if err != nil && res.Failed == 0 {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSyncResult(res, dryRun))
			for _, e := range voicesync.Errors(err) {
				fmt.Fprintf(out, "  ошибка: %v\n", e)
			}
			if err != nil {
				return fmt.Errorf("синхронизация завершилась с ошибками: %d", res.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Только показать изменения, ничего не записывая")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		search string
		page   int
		size   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Показать страницу каталога",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}

			voices, err := ctx.catalog(s).Load(cmd.Context())
			if err != nil {
				return err
			}

			if size <= 0 {
				size = ctx.cfg.App.PageSize
			}
			view := catalog.Project(catalog.View{SearchTerm: search, Page: page}, size, voices)
			fmt.Fprintln(cmd.OutOrStdout(), renderVoices(view))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Поиск по имени или voice_id")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Номер страницы (с 1)")
	cmd.Flags().IntVar(&size, "page-size", 0, "Размер страницы (по умолчанию CATALOG_PAGE_SIZE)")
	return cmd
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Миграции базы данных",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Применить миграции",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			return migrations.RunMigrations(ctx.cfg, ctx.logger)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Показать статус миграций",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			return migrations.GetMigrationStatus(ctx.cfg, ctx.logger)
		},
	})

	return migrateCmd
}
