// Package cmd provides the root command and CLI setup for covmut.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/covmut/internal/adapter"
	"gooze.dev/pkg/covmut/internal/controller"
	"gooze.dev/pkg/covmut/internal/domain"
)

var fsAdapter adapter.FSAdapter
var processRunner adapter.ProcessRunner
var correlator domain.Correlator
var workflow domain.Workflow

var verboseFlag bool
var logFileFlag string
var plainFlag bool
var rememberSkipsFlag bool
var coverageDirFlag string
var mutationDirFlag string
var coverageTableFlag string
var mutationTableFlag string
var skipTableFlag string

func init() {
	// Initialize shared dependencies. The workflow itself is assembled once
	// flags are parsed, since the UI depends on them.
	fsAdapter = adapter.NewLocalFSAdapter()
	processRunner = adapter.NewShellProcessRunner()
	correlator = domain.NewCorrelator(fsAdapter, adapter.NewCSVMetricTableReader(), adapter.NewGonumPlotter())
}

const rootLongDescription = `covmut runs an external analysis tool (defects4j by default) once per class
to collect condition coverage and mutation scores, checkpointing every result
so an interrupted batch resumes where it stopped. The correlate command then
relates mutation score to condition coverage across projects.`

const runLongDescription = `Run coverage and mutation analysis for every class in the class list
(default: all_classes.txt). Classes already recorded in both checkpoint tables
are skipped, so rerunning after an interruption only processes what is left.`

const statusLongDescription = `Show the checkpoint status of every class in the class list without running
anything: pending, coverage done, mutation done, or both done.`

const correlateLongDescription = `Compute the Pearson correlation between mutation score and condition coverage
for each project directory. Without arguments every subdirectory of --root that
holds both tables is analyzed; a scatter plot is written for each project.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "covmut",
		Short:        "Resumable coverage and mutation analysis driver",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

			if workflow == nil {
				workflow = newWorkflow(cmd)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

// newWorkflow wires the production workflow writing to cmd's output.
func newWorkflow(cmd *cobra.Command) domain.Workflow {
	ui := controller.NewUI(cmd, !viper.GetBool(uiPlainKey))

	return domain.NewWorkflow(fsAdapter, processRunner, adapter.NewCSVCheckpointStore, ui, correlator)
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(flags.Lookup(verboseFlagName), logVerboseKey)

	flags.StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(flags.Lookup(logFileFlagName), logFilenameKey)

	flags.BoolVar(&plainFlag, plainFlagName, viper.GetBool(uiPlainKey), "disable the interactive progress display")
	bindFlagToConfig(flags.Lookup(plainFlagName), uiPlainKey)

	flags.BoolVar(&rememberSkipsFlag, rememberSkipsFlagName, viper.GetBool(rememberSkipsKey),
		"record classes with zero conditions or mutants and do not retry them")
	bindFlagToConfig(flags.Lookup(rememberSkipsFlagName), rememberSkipsKey)

	flags.StringVar(&coverageDirFlag, coverageDirFlagName, viper.GetString(coverageDirKey), "directory for archived coverage reports")
	bindFlagToConfig(flags.Lookup(coverageDirFlagName), coverageDirKey)

	flags.StringVar(&mutationDirFlag, mutationDirFlagName, viper.GetString(mutationDirKey), "directory for archived mutation logs")
	bindFlagToConfig(flags.Lookup(mutationDirFlagName), mutationDirKey)

	flags.StringVar(&coverageTableFlag, coverageTableFlagName, viper.GetString(coverageTableKey), "condition coverage checkpoint table")
	bindFlagToConfig(flags.Lookup(coverageTableFlagName), coverageTableKey)

	flags.StringVar(&mutationTableFlag, mutationTableFlagName, viper.GetString(mutationTableKey), "mutation score checkpoint table")
	bindFlagToConfig(flags.Lookup(mutationTableFlagName), mutationTableKey)

	flags.StringVar(&skipTableFlag, skipTableFlagName, viper.GetString(skipTableKey), "skip ledger used with --remember-skips")
	bindFlagToConfig(flags.Lookup(skipTableFlagName), skipTableKey)
}

// interruptContext cancels the command context on SIGINT or SIGTERM.
func interruptContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if domain.IsInterrupted(err) {
		os.Exit(exitInterrupted)
	}

	os.Exit(1)
}

// exitInterrupted follows the shell convention for SIGINT.
const exitInterrupted = 130
