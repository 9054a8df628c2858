package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/repositories/registryrecord"
	"github.com/Ramsey-B/fern/pkg/registry"
)

func newRegistryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and import the reference registry",
	}
	cmd.AddCommand(newRegistryImportCommand(), newRegistryInspectCommand())
	return cmd
}

func newRegistryImportCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a registry folder into postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if dir == "" {
				dir = a.cfg.RegistryDir
			}
			return a.importRegistry(cmd.Context(), dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "registry folder, overriding REGISTRY_DIR")
	return cmd
}

func (a *app) importRegistry(ctx context.Context, dir string) error {
	snapshot, err := a.directoryProvider(dir).Load(ctx)
	if err != nil {
		return err
	}

	db, err := a.connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := a.migrations().Migrate(a.cfg.DatabaseName, db); err != nil {
		return err
	}

	repo := registryrecord.NewRepository(db, a.logger)
	_, err = registry.Import(ctx, a.logger, snapshot, repo, a.cfg.RegistryImportBatchSize)
	return err
}

func newRegistryInspectCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load the configured registry and print its summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			snapshot, closeDB, err := a.loadRegistry(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer closeDB()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snapshot.Info())
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "registry folder, overriding the configured source")
	return cmd
}
