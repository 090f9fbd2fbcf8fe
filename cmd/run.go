package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/covmut/internal/domain"
	m "gooze.dev/pkg/covmut/internal/model"
)

var toolFlag string
var timeoutFlag float64
var selectorFlag string
var coverageReportFlag string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [classes-file]",
		Short: "Run coverage and mutation analysis for a class list",
		Long:  runLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptContext(cmd)
			defer stop()

			return workflow.Run(ctx, domain.RunArgs{
				Classes:        classesPath(args),
				Tool:           viper.GetString(toolCommandKey),
				Timeout:        toolTimeout(),
				Selector:       m.Path(viper.GetString(runSelectorKey)),
				CoverageReport: m.Path(viper.GetString(runReportKey)),
				Layout:         outputLayout(),
				RememberSkips:  viper.GetBool(rememberSkipsKey),
			})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&toolFlag, toolFlagName, viper.GetString(toolCommandKey), "analysis tool executable")
	bindFlagToConfig(flags.Lookup(toolFlagName), toolCommandKey)

	flags.Float64Var(&timeoutFlag, timeoutFlagName, viper.GetFloat64(toolTimeoutKey), "timeout in seconds for each tool invocation")
	bindFlagToConfig(flags.Lookup(timeoutFlagName), toolTimeoutKey)

	flags.StringVar(&selectorFlag, selectorFlagName, viper.GetString(runSelectorKey), "file the current class name is written to")
	bindFlagToConfig(flags.Lookup(selectorFlagName), runSelectorKey)

	flags.StringVar(&coverageReportFlag, coverageReportFlagName, viper.GetString(runReportKey), "coverage report produced by the tool")
	bindFlagToConfig(flags.Lookup(coverageReportFlagName), runReportKey)
}
