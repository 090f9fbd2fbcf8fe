package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/covmut/internal/domain"
	m "gooze.dev/pkg/covmut/internal/model"
)

var correlateRootFlag string
var mutationFileFlag string
var conditionFileFlag string
var plotsDirFlag string
var summaryFileFlag string

// correlateCmd represents the correlate command.
var correlateCmd = newCorrelateCmd()

func newCorrelateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correlate [project-dirs...]",
		Short: "Correlate mutation score with condition coverage",
		Long:  correlateLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptContext(cmd)
			defer stop()

			return workflow.Correlate(ctx, domain.CorrelateArgs{
				Root:     m.Path(viper.GetString(correlateRootKey)),
				Projects: parsePaths(args),
				Options: domain.CorrelationOptions{
					MutationTable:  viper.GetString(mutationFileKey),
					ConditionTable: viper.GetString(conditionFileKey),
					PlotsDir:       m.Path(viper.GetString(plotsDirKey)),
				},
				SummaryFile: m.Path(viper.GetString(summaryFileKey)),
			})
		},
	}

	configureCorrelateFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(correlateCmd)
}

func configureCorrelateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&correlateRootFlag, rootFlagName, viper.GetString(correlateRootKey), "directory whose subdirectories are projects")
	bindFlagToConfig(flags.Lookup(rootFlagName), correlateRootKey)

	flags.StringVar(&mutationFileFlag, mutationFileFlagName, viper.GetString(mutationFileKey), "mutation table name inside each project")
	bindFlagToConfig(flags.Lookup(mutationFileFlagName), mutationFileKey)

	flags.StringVar(&conditionFileFlag, conditionFileFlagName, viper.GetString(conditionFileKey), "condition coverage table name inside each project")
	bindFlagToConfig(flags.Lookup(conditionFileFlagName), conditionFileKey)

	flags.StringVar(&plotsDirFlag, plotsDirFlagName, viper.GetString(plotsDirKey), "directory scatter plots are written to")
	bindFlagToConfig(flags.Lookup(plotsDirFlagName), plotsDirKey)

	flags.StringVar(&summaryFileFlag, summaryFileFlagName, viper.GetString(summaryFileKey), "optional YAML file for the correlation summary")
	bindFlagToConfig(flags.Lookup(summaryFileFlagName), summaryFileKey)
}

func parsePaths(args []string) []m.Path {
	var paths []m.Path

	for _, arg := range args {
		if arg == "" {
			continue
		}

		paths = append(paths, m.Path(arg))
	}

	return paths
}
