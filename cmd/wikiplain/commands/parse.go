package commands

import (
	"context"
	"fmt"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wikiplain/wikiplain/internal/logger"
	"github.com/wikiplain/wikiplain/internal/parquetio"
	"github.com/wikiplain/wikiplain/pkg/extract"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract paragraph text from a wikitext parquet shard",
	Long: `Parse wikitext from a parquet file with a single text column.

The text column is auto-detected (text, content, official_text, clone_text,
or any column containing "text") and can be overridden with --text-column.
The output keeps every input column and replaces the text column with
<column>_parsed.

Each article runs under a wall-clock budget; articles that exceed it, or
that the structural pre-scan refuses, are replaced with a fixed placeholder
instead of failing the batch.`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	flags := parseCmd.Flags()
	flags.StringP("input", "i", "", "input parquet file (required)")
	flags.StringP("output", "o", "", "output parquet file (required)")
	flags.String("text-column", "", "wikitext column to parse (auto-detected if not set)")
	addExtractionFlags(parseCmd)

	_ = parseCmd.MarkFlagRequired("input")
	_ = parseCmd.MarkFlagRequired("output")
}

// addExtractionFlags registers the flags shared by parse and parse-pair.
func addExtractionFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Bool("skip-lists", false, "drop bullet/numbered/definition lists from output")
	flags.Uint32("timeout", 30, "per-article parsing timeout in seconds (0 = no timeout)")
	flags.Bool("no-expand-templates", false, "disable date/number directive expansion")
	flags.IntP("workers", "w", runtime.NumCPU(), "concurrent articles")
	flags.Int("max-table-rows", 50, "structural screen: table-row marker threshold")
	flags.Int("max-templates", 200, "structural screen: template marker threshold")
	flags.Int("max-images", 50, "structural screen: image marker threshold")
}

func extractorFromFlags(cmd *cobra.Command) *extract.Extractor {
	skipLists, _ := cmd.Flags().GetBool("skip-lists")
	timeout, _ := cmd.Flags().GetUint32("timeout")
	noExpand, _ := cmd.Flags().GetBool("no-expand-templates")
	maxRows, _ := cmd.Flags().GetInt("max-table-rows")
	maxTemplates, _ := cmd.Flags().GetInt("max-templates")
	maxImages, _ := cmd.Flags().GetInt("max-images")

	cfg := extract.Config{
		SkipLists:       skipLists,
		TimeoutSeconds:  timeout,
		ExpandTemplates: !noExpand,
	}
	policy := extract.ScreenPolicy{
		MaxTableRows: maxRows,
		MaxTemplates: maxTemplates,
		MaxImages:    maxImages,
	}
	logger.Debug("extraction settings",
		"skip_lists", cfg.SkipLists,
		"timeout_seconds", cfg.TimeoutSeconds,
		"expand_templates", cfg.ExpandTemplates,
		"max_table_rows", policy.MaxTableRows,
		"max_templates", policy.MaxTemplates,
		"max_images", policy.MaxImages)
	return extract.New(cfg, extract.WithScreenPolicy(policy))
}

func runParse(cmd *cobra.Command, args []string) error {
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

	textColumn, _ := cmd.Flags().GetString("text-column")
	if textColumn == "" {
		detected, ok := table.DetectTextColumn()
		if !ok {
			return fmt.Errorf("could not auto-detect text column, use --text-column to specify")
		}
		textColumn = detected
	} else if table.Lookup(textColumn) < 0 {
		return fmt.Errorf("specified text column %q not found in schema", textColumn)
	}
	logger.Info("using text column", "column", textColumn)

	ids, titles := labelColumns(table)
	texts, err := table.StringColumn(textColumn)
	if err != nil {
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	extractor := extractorFromFlags(cmd)
	parsed := extractColumn(ctx, extractor, texts, ids, titles, workers)

	logger.Info("writing output", "path", outPath)
	err = parquetio.WriteTable(outPath, table, []parquetio.Replacement{{
		OldName: textColumn,
		NewName: textColumn + "_parsed",
		Values:  parsed,
	}})
	if err != nil {
		logger.Error("failed to write output", "path", outPath, "error", err)
		return err
	}
	logger.Info("processing complete", "rows", table.NumRows())
	return nil
}

// labelColumns extracts optional page id and title columns used only for
// progress logging.
func labelColumns(table *parquetio.Table) (ids, titles []*string) {
	if name, ok := table.DetectPageIDColumn(); ok {
		ids, _ = table.StringColumn(name)
	}
	if name, ok := table.DetectTitleColumn(); ok {
		titles, _ = table.StringColumn(name)
	}
	return ids, titles
}

func rowLabel(col []*string, i int, fallback string) string {
	if i < len(col) && col[i] != nil {
		return *col[i]
	}
	return fallback
}

// extractColumn runs per-article extraction over one column with a bounded
// worker pool. Null slots stay null; every other slot is written exactly
// once, so no locking is needed.
func extractColumn(ctx context.Context, e *extract.Extractor, texts, ids, titles []*string, workers int) []*string {
	if workers < 1 {
		workers = 1
	}

	var count int
	var totalBytes uint64
	for _, t := range texts {
		if t != nil {
			count++
			totalBytes += uint64(len(*t))
		}
	}
	logger.Info("extracting articles",
		"count", count,
		"size", humanize.Bytes(totalBytes),
		"workers", workers)

	out := make([]*string, len(texts))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var timedOut, skipped atomic.Int64

	for i := range texts {
		if texts[i] == nil {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			pid := rowLabel(ids, i, "row_"+strconv.Itoa(i))
			logger.Debug("processing article",
				"page_id", pid,
				"title", rowLabel(titles, i, "untitled"))

			outcome := e.Extract(ctx, *texts[i])
			switch outcome.Kind {
			case extract.KindTimedOut:
				timedOut.Add(1)
				logger.Warn("article timed out",
					"page_id", pid, "seconds", outcome.ElapsedSeconds)
			case extract.KindSkipped:
				skipped.Add(1)
				logger.Warn("article skipped as too complex", "page_id", pid)
			}

			text := outcome.Text()
			out[i] = &text
		}(i)
	}
	wg.Wait()

	if n := timedOut.Load() + skipped.Load(); n > 0 {
		logger.Warn("articles replaced with placeholders",
			"timed_out", timedOut.Load(), "skipped", skipped.Load())
	}
	return out
}
