package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/docsift/internal/output"
	"github.com/jmylchreest/docsift/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			w, err := output.NewWriter(os.Stdout, output.FormatJSON)
			if err != nil {
				return err
			}
			if err := w.Write(version.Get()); err != nil {
				return err
			}
			return w.Close()
		}
		_, err := fmt.Fprintln(os.Stdout, version.Full())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "print as JSON")
	rootCmd.Version = version.String()
}
