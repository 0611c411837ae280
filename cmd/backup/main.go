package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hanzidrill/internal/config"
	"hanzidrill/internal/logger"
	"hanzidrill/internal/service"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "backup",
		Short: "hanzidrill state backup tool",
		Long: `Export the saved drill state to a JSON file, or import one.

The storage backend is chosen by configuration:
  STORAGE_BACKEND  memory, file, sql or redis (default: file)
  STORAGE_DIR      directory for the file backend (default: ./data)
  DATABASE_TYPE    sqlite, postgres or mysql for the sql backend (default: sqlite)
  DB_PATH          SQLite database path (default: ./hanzidrill.db)
  DATABASE_URL     PostgreSQL or MySQL connection URL
  REDIS_ADDR       redis address for the redis backend`,
		SilenceUsage: true,
	}
	root.SetIn(in)
	root.SetOut(out)

	root.AddCommand(newExportCmd(), newImportCmd())
	return root
}

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export saved state to a JSON file",
		Example: "  backup export\n  backup export --output mybackup.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}

			return withBackupService(cmd.Context(), func(svc *service.BackupService, log *zap.Logger) error {
				log.Info("exporting state", zap.String("file", output))
				snap, err := svc.Export(cmd.Context(), output)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Export complete: %d characters, %d sessions written to %s\n",
					len(snap.History), len(snap.Sessions), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		input     string
		clearData bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import saved state from a JSON file",
		Example: "  # Replace the saved state\n  backup import --input backup.json\n\n" +
			"  # Delete the saved state first\n  backup import --input backup.json --clear",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(input); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("input file does not exist: %s", input)
			}

			return withBackupService(cmd.Context(), func(svc *service.BackupService, log *zap.Logger) error {
				if clearData {
					if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "WARNING: This will delete the saved state. Type 'yes' to confirm: ") {
						fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
						return nil
					}
					if err := svc.Clear(cmd.Context()); err != nil {
						return err
					}
				}

				log.Info("importing state", zap.String("file", input))
				snap, err := svc.Import(cmd.Context(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Import complete: %d characters, %d sessions\n",
					len(snap.History), len(snap.Sessions))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path (required)")
	cmd.Flags().BoolVar(&clearData, "clear", false, "delete the saved state before import (WARNING: destructive)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func withBackupService(ctx context.Context, fn func(*service.BackupService, *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	kv, err := service.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", zap.Error(err))
		return err
	}
	defer kv.Close()

	return fn(service.NewBackupService(kv, cfg.Storage.Key, log), log)
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}
