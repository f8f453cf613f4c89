package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sleeqtechnologies/rechef/internal/application"
	"github.com/sleeqtechnologies/rechef/internal/extract"
	"github.com/sleeqtechnologies/rechef/internal/source"
	"github.com/sleeqtechnologies/rechef/pkg/utils/format"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Dry-run content extraction for a URL",
	Long: `Run the platform extractor for a URL without creating a job or calling a model.

Reads YTDLP_PATH, YTDLP_COOKIES_FILE, SPOOL_DIR and MEDIA_DOWNLOAD_TIMEOUT
from the environment.

Examples:
  rechefctl extract https://youtu.be/abc123
  rechefctl extract --json https://example.com/banana-bread`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the raw content as JSON")
}

// newExtractor builds the extractor registry. Tests replace it.
var newExtractor = func() extract.Extractor {
	conf := toolConf.MediaConfig
	return application.NewExtractors(conf, application.NewStager(conf))
}

func runExtract(cmd *cobra.Command, args []string) error {
	info := source.Classify(args[0])
	raw, err := newExtractor().Extract(cmd.Context(), info)
	if err != nil {
		return fmt.Errorf("extract %s: %w", info.Source, err)
	}

	if extractJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(raw)
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Source", raw.Source},
		{"URL", format.Truncate(raw.URL, 80)},
		{"Title", raw.Title},
		{"Author", raw.AuthorName},
		{"Thumbnail", format.Truncate(raw.ThumbnailURL, 80)},
		{"Media", raw.MediaURL != ""},
		{"Duration", format.Duration(raw.DurationSeconds)},
		{"Transcript", humanize.Comma(int64(len([]rune(raw.Transcript)))) + " chars"},
		{"Main content", humanize.Bytes(uint64(len(raw.MainContent)))},
		{"Images", len(raw.ImageURLs)},
		{"Recipe schema", schemaSummary(raw.Schema)},
	})
	t.Render()
	return nil
}

func schemaSummary(s *extract.RecipeSchema) string {
	if s == nil {
		return "none"
	}
	summary := fmt.Sprintf("%d ingredients, %d steps", len(s.Ingredients), len(s.Instructions))
	if s.Complete() {
		summary += " (complete)"
	}
	return summary
}
