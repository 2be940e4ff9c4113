package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iiroan/herodex/internal/ui"
	"github.com/iiroan/herodex/internal/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if versionJSON {
			data, err := info.JSON()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		if quiet {
			fmt.Println(info.Version)
			return nil
		}
		fmt.Println(ui.Banner())
		fmt.Println(info.String())
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
}
