package list

import (
	"flagops/cmd/flagops/list/environments"
	"flagops/cmd/flagops/list/projects"

	"github.com/spf13/cobra"
)

func init() {
	Command.AddCommand(environments.Command)
	Command.AddCommand(projects.Command)
}

var Command = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "Lists resources on the feature flag platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
