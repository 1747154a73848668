package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	buildinfo "github.com/good-yellow-bee/trackadmin/pkg/config"
)

func newVersionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit, and build time of trackctl.`,
		Run: func(cmd *cobra.Command, args []string) {
			if g.output == "json" {
				info := buildinfo.GetBuildInfo()
				data, _ := json.MarshalIndent(info, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), buildinfo.VersionString())
			}
		},
	}
}
