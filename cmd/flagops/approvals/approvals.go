package approvals

import (
	"flagops/cmd/flagops/approvals/apply"
	"flagops/cmd/flagops/approvals/remove"

	"github.com/spf13/cobra"
)

func init() {
	Command.AddCommand(apply.Command)
	Command.AddCommand(remove.Command)
}

var Command = &cobra.Command{
	Use:     "approvals",
	Aliases: []string{"approval", "a"},
	Short:   "Manages change-approval policies across projects and environments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
