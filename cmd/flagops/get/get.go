package get

import (
	"flagops/cmd/flagops/get/environment"

	"github.com/spf13/cobra"
)

func init() {
	Command.AddCommand(environment.Command)
}

var Command = &cobra.Command{
	Use:     "get",
	Aliases: []string{"g"},
	Short:   "Retrieves a resource from the feature flag platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
