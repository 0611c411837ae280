package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hanzidrill/internal/catalog"
	"hanzidrill/internal/config"
	"hanzidrill/internal/logger"
	"hanzidrill/internal/mastery"
	"hanzidrill/internal/service"
	"hanzidrill/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		mode    string
		lessons []string
	)

	cmd := &cobra.Command{
		Use:          "drill",
		Short:        "Drill Chinese sentences in the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if mode != "" {
				cfg.Drill.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			log, err := logger.New(cfg.Env)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer log.Sync()

			svc, closeStore, err := build(cmd.Context(), cfg, log)
			if err != nil {
				log.Error("startup failed", zap.Error(err))
				return err
			}
			defer closeStore()

			svc.Start(cmd.Context())
			defer svc.Stop()

			return newDrill(svc, lessons, cmd.InOrStdin(), cmd.OutOrStdout(), log).run()
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "drill mode: character or pinyin (default from config)")
	cmd.Flags().StringSliceVar(&lessons, "lessons", nil, "only drill these lesson ids")
	return cmd
}

// build opens storage and the catalog and returns a review service over them
func build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*service.ReviewService, func(), error) {
	source, err := catalog.ReadDir(cfg.Lessons.Path, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read lessons: %w", err)
	}
	cat := catalog.New(source,
		catalog.WithIDStrategy(catalog.IDStrategy(cfg.Catalog.IDStrategy)),
		catalog.WithLogger(log))
	if cat.Size() == 0 {
		return nil, nil, fmt.Errorf("no usable sentences in %s", cfg.Lessons.Path)
	}
	log.Info("catalog loaded",
		zap.Int("sentences", cat.Size()),
		zap.Strings("lessons", cat.Lessons()))

	kv, err := service.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	drillMode := mastery.Mode(cfg.Drill.Mode)
	svc := service.NewReviewService(cat, kv, cfg.Storage.Key, drillMode,
		service.WithReviewLogger(log),
		service.WithSessionOptions(
			session.WithThresholds(mastery.ModeCharacter, mastery.ThresholdsFor(cfg.Mastery, mastery.ModeCharacter)),
			session.WithThresholds(mastery.ModePinyin, mastery.ThresholdsFor(cfg.Mastery, mastery.ModePinyin)),
		))

	return svc, func() {
		if err := kv.Close(); err != nil {
			log.Warn("failed to close storage", zap.Error(err))
		}
	}, nil
}
