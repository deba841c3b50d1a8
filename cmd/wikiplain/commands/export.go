package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wikiplain/wikiplain/internal/logger"
	"github.com/wikiplain/wikiplain/internal/parquetio"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export parsed articles to per-page text files",
	Long: `Write each parsed article to its own .txt file, named by page id.

Two-sided batches produce <page_id>_official.txt and <page_id>_clone.txt;
single-column batches produce <page_id>.txt from the *_parsed column.
Null articles are skipped. A page id column (page_id or pageid) is
required for file naming.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	flags := exportCmd.Flags()
	flags.StringP("input", "i", "", "input parquet file, parsed (required)")
	flags.String("official-dir", "data/parsed_export", "directory for official-side files")
	flags.String("clone-dir", "", "directory for clone-side files (defaults to --official-dir)")

	_ = exportCmd.MarkFlagRequired("input")
}

func runExport(cmd *cobra.Command, args []string) error {
	initLogger()

	inPath, _ := cmd.Flags().GetString("input")
	officialDir, _ := cmd.Flags().GetString("official-dir")
	cloneDir, _ := cmd.Flags().GetString("clone-dir")
	if cloneDir == "" {
		cloneDir = officialDir
	}

	logger.Info("reading input", "path", inPath)
	table, err := parquetio.ReadTable(inPath)
	if err != nil {
		logger.Error("failed to read input", "path", inPath, "error", err)
		return err
	}
	logger.Info("input loaded", "rows", table.NumRows(), "columns", len(table.Names))

	idColumn, ok := table.DetectPageIDColumn()
	if !ok {
		return fmt.Errorf("no page id column found, cannot name export files")
	}
	ids, err := table.StringColumn(idColumn)
	if err != nil {
		return err
	}

	sides, err := exportSides(table)
	if err != nil {
		return err
	}

	var written int
	for _, side := range sides {
		dir := officialDir
		if side.suffix == "_clone" {
			dir = cloneDir
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}

		texts, err := table.StringColumn(side.column)
		if err != nil {
			return err
		}
		logger.Info("exporting column", "column", side.column, "dir", dir)

		for i, text := range texts {
			if text == nil || ids[i] == nil {
				continue
			}
			name := filepath.Join(dir, *ids[i]+side.suffix+".txt")
			if err := os.WriteFile(name, []byte(*text), 0o644); err != nil {
				logger.Error("failed to write article", "path", name, "error", err)
				return err
			}
			written++
		}
	}

	logger.Info("export complete", "files", written)
	return nil
}

type exportSide struct {
	column string
	suffix string
}

// exportSides maps the table's parsed columns to export file suffixes.
func exportSides(table *parquetio.Table) ([]exportSide, error) {
	var sides []exportSide
	if table.Lookup("official_text_paragraphs") >= 0 {
		sides = append(sides, exportSide{"official_text_paragraphs", "_official"})
	}
	if table.Lookup("clone_text_paragraphs") >= 0 {
		sides = append(sides, exportSide{"clone_text_paragraphs", "_clone"})
	}
	if len(sides) > 0 {
		return sides, nil
	}
	for _, name := range table.Names {
		if strings.HasSuffix(name, "_parsed") {
			return []exportSide{{name, ""}}, nil
		}
	}
	return nil, fmt.Errorf("no parsed text columns found in schema")
}
