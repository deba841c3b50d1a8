package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wikiplain/wikiplain/internal/logger"
	"github.com/wikiplain/wikiplain/internal/parquetio"
	"github.com/wikiplain/wikiplain/pkg/fragments"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Repair markup fragments in already parsed text (phase 2)",
	Long: `Run the batch-wide fragment repair pass over parsed paragraph text.

Extraction intentionally leaves some leakage behind: {{...}} directive
fragments and stranded image-file markup. This pass removes both with
length-bounded patterns iterated to a fixed point, then normalizes
whitespace. Columns default to official_text_paragraphs and
clone_text_paragraphs when present, otherwise any *_parsed column.

Extra removal patterns can be supplied with --rules (YAML or JSON); they
run after the built-in fragment cleaners and before normalization.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	flags := cleanCmd.Flags()
	flags.StringP("input", "i", "", "input parquet file, dirty (required)")
	flags.StringP("output", "o", "", "output parquet file, clean (required)")
	flags.StringSlice("columns", nil, "text columns to clean (auto-detected if not set)")
	flags.String("rules", "", "extra removal rules file (yaml or json)")
	flags.IntP("workers", "w", 4, "concurrent texts")

	_ = cleanCmd.MarkFlagRequired("input")
	_ = cleanCmd.MarkFlagRequired("output")
}

func runClean(cmd *cobra.Command, args []string) error {
	initLogger()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	inPath, _ := cmd.Flags().GetString("input")
	outPath, _ := cmd.Flags().GetString("output")

	logger.Info("reading input", "path", inPath)
	table, err := parquetio.ReadTable(inPath)
	if err != nil {
		logger.Error("failed to read input", "path", inPath, "error", err)
		return err
	}
	logger.Info("input loaded", "rows", table.NumRows(), "columns", len(table.Names))

	columns, _ := cmd.Flags().GetStringSlice("columns")
	if len(columns) == 0 {
		columns = detectDirtyColumns(table)
		if len(columns) == 0 {
			return fmt.Errorf("no paragraph columns found, use --columns to specify")
		}
	} else {
		for _, col := range columns {
			if table.Lookup(col) < 0 {
				return fmt.Errorf("column %q not found in schema", col)
			}
		}
	}
	logger.Info("cleaning columns", "columns", columns)

	chain, err := repairChain(cmd)
	if err != nil {
		return err
	}
	logger.Debug("repair chain", "chain", chain.Name())

	workers, _ := cmd.Flags().GetInt("workers")
	var repls []parquetio.Replacement
	for _, col := range columns {
		values, err := table.StringColumn(col)
		if err != nil {
			return err
		}
		repls = append(repls, parquetio.Replacement{
			OldName: col,
			NewName: col,
			Values:  cleanColumn(ctx, chain, values, workers),
		})
	}

	logger.Info("writing output", "path", outPath)
	if err := parquetio.WriteTable(outPath, table, repls); err != nil {
		logger.Error("failed to write output", "path", outPath, "error", err)
		return err
	}
	logger.Info("cleaning complete", "rows", table.NumRows())
	return nil
}

// detectDirtyColumns picks the columns produced by parse/parse-pair.
func detectDirtyColumns(table *parquetio.Table) []string {
	var columns []string
	for _, col := range []string{"official_text_paragraphs", "clone_text_paragraphs"} {
		if table.Lookup(col) >= 0 {
			columns = append(columns, col)
		}
	}
	if len(columns) > 0 {
		return columns
	}
	for _, name := range table.Names {
		if strings.HasSuffix(name, "_parsed") {
			columns = append(columns, name)
		}
	}
	return columns
}

// repairChain builds the repair pipeline: built-in fragment cleaners, any
// rules-file cleaners, then whitespace normalization last.
func repairChain(cmd *cobra.Command) (*fragments.Chain, error) {
	cleaners := []fragments.Cleaner{
		fragments.NewTemplateResidue(),
		fragments.NewImageFragments(),
	}

	if rulesPath, _ := cmd.Flags().GetString("rules"); rulesPath != "" {
		rs, err := fragments.RulesFromFile(rulesPath)
		if err != nil {
			logger.Error("failed to load rules", "path", rulesPath, "error", err)
			return nil, err
		}
		extra, err := rs.Cleaners()
		if err != nil {
			logger.Error("failed to compile rules", "path", rulesPath, "error", err)
			return nil, err
		}
		logger.Info("loaded extra rules", "path", rulesPath, "rules", len(extra))
		cleaners = append(cleaners, extra...)
	}

	cleaners = append(cleaners, fragments.NewNormalize())
	return fragments.NewChain(cleaners...), nil
}

// cleanColumn repairs one column, nulls passing through untouched.
func cleanColumn(ctx context.Context, chain *fragments.Chain, values []*string, workers int) []*string {
	idx := make([]int, 0, len(values))
	batch := make([]string, 0, len(values))
	for i, v := range values {
		if v != nil {
			idx = append(idx, i)
			batch = append(batch, *v)
		}
	}

	cleaned := fragments.RepairBatch(ctx, chain, batch, workers)

	out := make([]*string, len(values))
	for k, i := range idx {
		v := cleaned[k]
		out[i] = &v
	}
	return out
}
