package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/pkg/pipeline"
	"github.com/Ramsey-B/fern/pkg/registry"
	"github.com/Ramsey-B/fern/pkg/tabular"
)

type enrichOptions struct {
	input       string
	output      string
	format      string
	registryDir string
	noEnrich    bool
}

func newEnrichCommand() *cobra.Command {
	var opts enrichOptions

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Resolve and enrich a CSV or XLSX file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.enrich(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "uploaded CSV or XLSX file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (defaults to enriched_data.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: csv or xlsx (defaults to the output extension)")
	cmd.Flags().StringVar(&opts.registryDir, "registry-dir", "", "registry folder, overriding REGISTRY_DIR")
	cmd.Flags().BoolVar(&opts.noEnrich, "no-enrich", false, "skip the remote lookup stage")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) enrich(ctx context.Context, opts enrichOptions) error {
	data, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	table, err := tabular.ReadUpload(data, opts.input)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", opts.input, err)
	}

	format, err := outputFormat(opts)
	if err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		output = "enriched_data." + string(format)
	}

	snapshot, closeDB, err := a.loadRegistry(ctx, opts.registryDir)
	if err != nil {
		return err
	}
	defer closeDB()

	var enricher pipeline.Enricher
	if a.cfg.EnrichmentEnabled && !opts.noEnrich {
		var rdb *redis.Client
		if a.cfg.EnrichmentCache == "redis" {
			rdb = a.newRedis()
			defer rdb.Close()
		}
		enricher = a.fetcher(a.enrichmentCache(rdb))
	}

	result, err := a.pipeline(enricher, nil).Run(ctx, snapshot, table)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tabular.WriteTable(&buf, format, result.Output); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	a.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":    result.RunID,
		"output":    output,
		"rows":      result.Stats.Output,
		"exact":     result.Stats.Exact,
		"fuzzy":     result.Stats.Fuzzy,
		"unmatched": result.Stats.Unmatched,
		"enriched":  result.Stats.Enriched,
	}).Info("enrichment complete")
	return nil
}

// loadRegistry reads one snapshot. A directory override always wins over the configured source.
func (a *app) loadRegistry(ctx context.Context, dir string) (*registry.Snapshot, func(), error) {
	if dir != "" {
		snapshot, err := a.directoryProvider(dir).Load(ctx)
		return snapshot, func() {}, err
	}

	var (
		conn    database.DB
		closeDB = func() {}
	)
	if a.cfg.RegistrySource == "postgres" {
		db, err := a.connectDatabase(ctx)
		if err != nil {
			return nil, nil, err
		}
		conn = db
		closeDB = func() { _ = db.Close() }
	}

	provider, err := a.registryProvider(conn)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	snapshot, err := provider.Load(ctx)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return snapshot, closeDB, nil
}

func outputFormat(opts enrichOptions) (tabular.Format, error) {
	if opts.format != "" {
		return tabular.ParseFormat(opts.format)
	}
	if opts.output != "" {
		return tabular.DetectFormat(opts.output, nil), nil
	}
	return tabular.FormatCSV, nil
}
