package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/covmut/internal/domain"
)

// statusCmd represents the status command.
var statusCmd = newStatusCmd()

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [classes-file]",
		Short: "Show the checkpoint status of each class",
		Long:  statusLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Status(cmd.Context(), domain.StatusArgs{
				Classes:       classesPath(args),
				Layout:        outputLayout(),
				RememberSkips: viper.GetBool(rememberSkipsKey),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
