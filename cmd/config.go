package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	m "gooze.dev/pkg/covmut/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "covmut"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "COVMUT"

	verboseFlagName        = "verbose"
	logFileFlagName        = "log-file"
	plainFlagName          = "plain"
	rememberSkipsFlagName  = "remember-skips"
	coverageDirFlagName    = "coverage-dir"
	mutationDirFlagName    = "mutation-dir"
	coverageTableFlagName  = "coverage-table"
	mutationTableFlagName  = "mutation-table"
	skipTableFlagName      = "skip-table"
	toolFlagName           = "tool"
	timeoutFlagName        = "timeout"
	selectorFlagName       = "selector"
	coverageReportFlagName = "coverage-report"
	rootFlagName           = "root"
	mutationFileFlagName   = "mutation-file"
	conditionFileFlagName  = "condition-file"
	plotsDirFlagName       = "plots-dir"
	summaryFileFlagName    = "summary-file"

	toolCommandKey    = "tool.command"
	toolTimeoutKey    = "tool.timeout"
	runClassesKey     = "run.classes"
	runSelectorKey    = "run.selector"
	runReportKey      = "run.coverage_report"
	rememberSkipsKey  = "run.remember_skips"
	coverageDirKey    = "output.coverage_dir"
	mutationDirKey    = "output.mutation_dir"
	coverageTableKey  = "output.coverage_table"
	mutationTableKey  = "output.mutation_table"
	skipTableKey      = "output.skip_table"
	correlateRootKey  = "correlate.root"
	mutationFileKey   = "correlate.mutation_table"
	conditionFileKey  = "correlate.condition_table"
	plotsDirKey       = "correlate.plots_dir"
	summaryFileKey    = "correlate.summary_file"
	uiPlainKey        = "ui.plain"

	defaultToolCommand    = "defects4j"
	defaultToolTimeout    = 300 * time.Second
	defaultClasses        = "all_classes.txt"
	defaultSelector       = "target_class.txt"
	defaultCoverageReport = "coverage.xml"
	defaultRememberSkips  = false
	defaultCoverageDir    = "coverage_results"
	defaultMutationDir    = "mutation_results"
	defaultSkipTable      = "skipped_classes.csv"
	defaultCorrelateRoot  = "."
	defaultMutationFile   = "mutation.csv"
	defaultConditionFile  = "condition.csv"
	defaultPlotsDir       = "."
	defaultUIPlain        = false

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".covmut.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var (
	defaultCoverageTable = filepath.Join(defaultCoverageDir, "condition_coverage.csv")
	defaultMutationTable = filepath.Join(defaultMutationDir, "mutation_scores.csv")
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(toolCommandKey, defaultToolCommand)
	viper.SetDefault(toolTimeoutKey, defaultToolTimeout.Seconds())
	viper.SetDefault(runClassesKey, defaultClasses)
	viper.SetDefault(runSelectorKey, defaultSelector)
	viper.SetDefault(runReportKey, defaultCoverageReport)
	viper.SetDefault(rememberSkipsKey, defaultRememberSkips)
	viper.SetDefault(coverageDirKey, defaultCoverageDir)
	viper.SetDefault(mutationDirKey, defaultMutationDir)
	viper.SetDefault(coverageTableKey, defaultCoverageTable)
	viper.SetDefault(mutationTableKey, defaultMutationTable)
	viper.SetDefault(skipTableKey, defaultSkipTable)
	viper.SetDefault(correlateRootKey, defaultCorrelateRoot)
	viper.SetDefault(mutationFileKey, defaultMutationFile)
	viper.SetDefault(conditionFileKey, defaultConditionFile)
	viper.SetDefault(plotsDirKey, defaultPlotsDir)
	viper.SetDefault(summaryFileKey, "")
	viper.SetDefault(uiPlainKey, defaultUIPlain)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// outputLayout resolves the checkpoint layout from configuration.
func outputLayout() m.OutputLayout {
	return m.OutputLayout{
		CoverageDir:   m.Path(viper.GetString(coverageDirKey)),
		MutationDir:   m.Path(viper.GetString(mutationDirKey)),
		CoverageTable: m.Path(viper.GetString(coverageTableKey)),
		MutationTable: m.Path(viper.GetString(mutationTableKey)),
		SkipTable:     m.Path(viper.GetString(skipTableKey)),
	}
}

// toolTimeout reads the per-invocation timeout in seconds. Non-positive
// values fall back to the default.
func toolTimeout() time.Duration {
	seconds := viper.GetFloat64(toolTimeoutKey)
	if seconds <= 0 {
		return defaultToolTimeout
	}

	return time.Duration(seconds * float64(time.Second))
}

// classesPath returns the class list from the positional argument or config.
func classesPath(args []string) m.Path {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return m.Path(args[0])
	}

	return m.Path(viper.GetString(runClassesKey))
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
