// Package batch assembles the batch command, which executes the shell
// commands declared in a YAML definition through the concurrent task runner.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/taskrun/internal/execshell"
	"github.com/tyemirov/taskrun/internal/utils"
	flagutils "github.com/tyemirov/taskrun/internal/utils/flags"
	"github.com/tyemirov/taskrun/pkg/runner"
)

const (
	commandUseConstant                     = "batch <definition.yaml>"
	commandShortDescriptionConstant        = "Run the tasks of a batch definition concurrently"
	commandLongDescriptionConstant         = "batch executes the shell commands declared in a YAML definition concurrently, honoring per-task timeouts, heartbeat extensions, and retry policies."
	commandExampleConstant                 = "taskrun batch ./batch.yaml\n  taskrun batch ./batch.yaml --max-concurrency 4 --verbose"
	maxConcurrencyFlagNameConstant         = "max-concurrency"
	maxConcurrencyFlagDescriptionConstant  = "Maximum number of tasks running at once"
	retriesFlagNameConstant                = "retries"
	retriesFlagDescriptionConstant         = "Enable retries for failing tasks"
	verboseFlagNameConstant                = "verbose"
	verboseFlagDescriptionConstant         = "Log every task lifecycle message"
	commandDefinitionPathRequiredMessageConstant = "batch definition path required; provide a positional argument"
	loadDefinitionErrorTemplateConstant    = "unable to load batch definition: %w"
	executorInitializationTemplateConstant = "unable to initialize shell executor: %w"
	taskRegistrationErrorTemplateConstant  = "unable to register task %q: %w"
	batchFailureTemplateConstant           = "%d of %d tasks failed"
	taskSucceededLineTemplateConstant      = "%s: ok\n"
	taskFailedLineTemplateConstant         = "%s: failed: %s\n"
	taskTimedOutLineTemplateConstant       = "%s: timed out: %s\n"
	taskOutputMetadataKeyConstant          = "command"
)

// LoggerProvider supplies the diagnostic logger.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the batch command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConsoleLoggerProvider LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	CommandRunner         execshell.CommandRunner
}

// Build constructs the batch command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		RunE:    builder.run,
	}

	command.Flags().Int(maxConcurrencyFlagNameConstant, 0, maxConcurrencyFlagDescriptionConstant)
	command.Flags().Bool(retriesFlagNameConstant, false, retriesFlagDescriptionConstant)
	command.Flags().Bool(verboseFlagNameConstant, false, verboseFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return errors.New(commandDefinitionPathRequiredMessageConstant)
	}

	definition, definitionError := LoadDefinition(arguments[0])
	if definitionError != nil {
		return fmt.Errorf(loadDefinitionErrorTemplateConstant, definitionError)
	}

	commandConfiguration := builder.resolveConfiguration()

	maxConcurrency := commandConfiguration.MaxConcurrency
	if command.Flags().Changed(maxConcurrencyFlagNameConstant) {
		flagValue, flagError := command.Flags().GetInt(maxConcurrencyFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		maxConcurrency = flagValue
	}

	retryEnabled := commandConfiguration.RetryEnabled
	retriesFlagValue, retriesFlagChanged, retriesFlagError := flagutils.BoolFlag(command, retriesFlagNameConstant)
	if retriesFlagError != nil && !errors.Is(retriesFlagError, flagutils.ErrFlagNotDefined) {
		return retriesFlagError
	}
	if retriesFlagChanged {
		retryEnabled = retriesFlagValue
	}

	verbose, _, verboseFlagError := flagutils.BoolFlag(command, verboseFlagNameConstant)
	if verboseFlagError != nil && !errors.Is(verboseFlagError, flagutils.ErrFlagNotDefined) {
		return verboseFlagError
	}

	logger := builder.resolveLogger()
	shellExecutor, executorError := execshell.NewShellExecutor(logger, builder.resolveCommandRunner())
	if executorError != nil {
		return fmt.Errorf(executorInitializationTemplateConstant, executorError)
	}

	batchRunner := runner.New(runner.Config{
		MaxConcurrency:    maxConcurrency,
		HeartbeatInterval: commandConfiguration.HeartbeatIntervalDuration(),
		PollInterval:      commandConfiguration.PollIntervalDuration(),
		RetryEnabled:      retryEnabled,
		RetryPolicy:       runner.RetryPolicy{MaxAttempts: commandConfiguration.RetryMaxAttempts},
		WorkerPoolSize:    commandConfiguration.WorkerPoolSize,
		Logger:            logger,
		Verbose:           verbose,
	})

	taskNames := make([]string, 0, len(definition.Tasks))
	for _, taskDefinition := range definition.Tasks {
		taskConfiguration, configurationError := resolveTaskConfiguration(taskDefinition)
		if configurationError != nil {
			return configurationError
		}

		assignedName, registrationError := batchRunner.AddTask(
			buildTaskCallable(shellExecutor, taskDefinition),
			runner.WithTaskName(taskDefinition.Name),
			runner.WithTaskConfig(taskConfiguration),
		)
		if registrationError != nil {
			return fmt.Errorf(taskRegistrationErrorTemplateConstant, taskDefinition.Name, registrationError)
		}
		taskNames = append(taskNames, assignedName)
	}

	startedAt := time.Now()
	state, runError := batchRunner.AggregateResults(command.Context())
	if runError != nil {
		return runError
	}

	builder.reportOutcome(command, state, taskNames, time.Since(startedAt))

	if len(state.Errors) > 0 {
		return fmt.Errorf(batchFailureTemplateConstant, len(state.Errors), len(taskNames))
	}
	return nil
}

func buildTaskCallable(shellExecutor *execshell.ShellExecutor, taskDefinition TaskDefinition) runner.TaskFunc {
	shellCommand := execshell.ShellCommand{
		Name: execshell.CommandName(taskDefinition.Command),
		Details: execshell.CommandDetails{
			Arguments:            append([]string{}, taskDefinition.Arguments...),
			WorkingDirectory:     taskDefinition.WorkingDirectory,
			EnvironmentVariables: taskDefinition.Environment,
		},
	}

	return func(taskContext context.Context) (any, error) {
		executionResult, executionError := shellExecutor.Execute(taskContext, shellCommand)
		if executionError != nil {
			return nil, executionError
		}
		return strings.TrimSpace(executionResult.StandardOutput), nil
	}
}

func resolveTaskConfiguration(taskDefinition TaskDefinition) (runner.TaskConfig, error) {
	taskConfiguration := runner.TaskConfig{
		HeartbeatExtendsTimeout: taskDefinition.HeartbeatExtendsTimeout,
		Metadata:                map[string]any{taskOutputMetadataKeyConstant: taskDefinition.Command},
	}

	softTimeout, timeoutError := taskDefinition.TimeoutDuration()
	if timeoutError != nil {
		return runner.TaskConfig{}, timeoutError
	}
	if softTimeout > 0 {
		taskConfiguration.Timeout = &softTimeout
	}

	hardTimeout, hardTimeoutError := taskDefinition.HardTimeoutDuration()
	if hardTimeoutError != nil {
		return runner.TaskConfig{}, hardTimeoutError
	}
	if hardTimeout > 0 {
		taskConfiguration.HardTimeout = &hardTimeout
	}

	if taskDefinition.Retry != nil {
		retryEnabled := true
		retryPolicy := runner.DefaultRetryPolicy()
		retryPolicy.MaxAttempts = taskDefinition.Retry.MaxAttempts
		taskConfiguration.RetryEnabled = &retryEnabled
		taskConfiguration.RetryPolicy = &retryPolicy
	}

	return taskConfiguration, nil
}

func (builder *CommandBuilder) reportOutcome(command *cobra.Command, state *runner.SharedState, taskNames []string, elapsed time.Duration) {
	output := utils.NewFlushingWriter(command.OutOrStdout())
	errorOutput := utils.NewFlushingWriter(command.ErrOrStderr())

	timedOut := make(map[string]struct{}, len(state.TimedOut))
	for _, taskName := range state.TimedOut {
		timedOut[taskName] = struct{}{}
	}

	sortedNames := append([]string{}, taskNames...)
	sort.Strings(sortedNames)
	for _, taskName := range sortedNames {
		failureText, failed := state.Errors[taskName]
		switch {
		case !failed:
			fmt.Fprintf(output, taskSucceededLineTemplateConstant, taskName)
		default:
			if _, didTimeOut := timedOut[taskName]; didTimeOut {
				fmt.Fprintf(output, taskTimedOutLineTemplateConstant, taskName, failureText)
				continue
			}
			fmt.Fprintf(output, taskFailedLineTemplateConstant, taskName, failureText)
		}
	}

	summary := RenderSummaryLine(state, len(taskNames), elapsed)
	if len(strings.TrimSpace(summary)) > 0 {
		fmt.Fprintln(errorOutput, summary)
	}
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	if logger := builder.LoggerProvider(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

func (builder *CommandBuilder) resolveCommandRunner() execshell.CommandRunner {
	if builder.CommandRunner != nil {
		return builder.CommandRunner
	}
	return execshell.NewOSCommandRunner()
}
