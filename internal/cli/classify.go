package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sleeqtechnologies/rechef/internal/source"
	"github.com/sleeqtechnologies/rechef/pkg/utils/format"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url>...",
	Short: "Show which extractor handles each URL",
	Long: `Classify submission URLs the same way the pipeline does.

Examples:
  rechefctl classify https://youtu.be/abc123
  rechefctl classify https://www.tiktok.com/@chef/video/7234567890123456789 https://example.com/post`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"URL", "Source", "ID", "Content Type"})
	for _, raw := range args {
		info := source.Classify(raw)
		t.AppendRow(table.Row{format.Truncate(raw, 80), info.Source, info.ID, info.Source.ContentType()})
	}
	t.Render()
	return nil
}
