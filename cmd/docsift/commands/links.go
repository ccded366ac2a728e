package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/fetcher"
	"github.com/jmylchreest/docsift/pkg/links"
)

var linksCmd = &cobra.Command{
	Use:   "links <url|file>",
	Short: "List document links found on a page",
	Long: `Print the links of an HTML page, resolved to absolute URLs, one per line
and in document order.

Examples:
  # Every PDF linked from an index page
  docsift links "https://example.com/reports" --ext pdf

  # Links inside a specific list, matching a pattern
  docsift links "https://example.com/reports" --selector "ul.files a" \
      --pattern "/2024/"`,
	Args: cobra.ExactArgs(1),
	RunE: runLinks,
}

func init() {
	rootCmd.AddCommand(linksCmd)

	flags := linksCmd.Flags()
	flags.String("selector", links.DefaultCSSSelector, "CSS selector for anchors")
	flags.String("pattern", "", "regex the absolute URL must match")
	flags.StringSlice("ext", nil, "file extensions to keep, e.g. pdf,xlsx")
	flags.Bool("same-domain", false, "only keep links on the page's domain")
}

func runLinks(cmd *cobra.Command, args []string) error {
	ctx, cancel := setup()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	selector, _ := flags.GetString("selector")
	pattern, _ := flags.GetString("pattern")
	exts, _ := flags.GetStringSlice("ext")
	sameDomain, _ := flags.GetBool("same-domain")

	sel, err := links.NewSelector(selector, pattern, exts, sameDomain)
	if err != nil {
		logger.Error("invalid link selector", "error", err)
		return err
	}

	content, err := loadSource(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	if content.Kind != fetcher.KindHTML {
		return fmt.Errorf("%s is %s content, not HTML", args[0], content.Kind)
	}

	found, err := sel.Extract(content.HTML, content.URL)
	if err != nil {
		logger.Error("link extraction failed", "error", err)
		return err
	}
	for _, link := range found {
		_, _ = fmt.Fprintln(os.Stdout, link)
	}
	logInfo("%d link(s)", len(found))
	return nil
}
