package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/taskrun/cmd/cli"
)

func executeApplication(testInstance *testing.T, arguments ...string) (string, error) {
	testInstance.Helper()

	application := cli.NewApplication()
	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	command := application.RootCommand()
	command.SetOut(outputBuffer)
	command.SetErr(errorBuffer)
	command.SetArgs(arguments)

	executionError := application.Execute()
	return outputBuffer.String(), executionError
}

func TestApplicationRootDisplaysHelpWithoutArguments(testInstance *testing.T) {
	testInstance.Setenv("TASKRUN_CONFIG_SEARCH_PATH", testInstance.TempDir())

	output, executionError := executeApplication(testInstance)

	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "taskrun")
	require.Contains(testInstance, output, "batch")
}

func TestApplicationInitializesLocalConfiguration(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	testInstance.Chdir(workingDirectory)
	testInstance.Setenv("TASKRUN_CONFIG_SEARCH_PATH", testInstance.TempDir())

	_, executionError := executeApplication(testInstance, "--init", "local")
	require.NoError(testInstance, executionError)

	writtenContent, readError := os.ReadFile(filepath.Join(workingDirectory, "config.yaml"))
	require.NoError(testInstance, readError)

	embeddedContent, _ := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, embeddedContent, writtenContent)
}

func TestApplicationInitializationRefusesOverwriteWithoutForce(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	testInstance.Chdir(workingDirectory)
	testInstance.Setenv("TASKRUN_CONFIG_SEARCH_PATH", testInstance.TempDir())

	existingPath := filepath.Join(workingDirectory, "config.yaml")
	require.NoError(testInstance, os.WriteFile(existingPath, []byte("common: {}\n"), 0o600))

	_, executionError := executeApplication(testInstance, "--init", "local")
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "already exists")

	_, forcedError := executeApplication(testInstance, "--init", "local", "--force")
	require.NoError(testInstance, forcedError)

	writtenContent, readError := os.ReadFile(existingPath)
	require.NoError(testInstance, readError)
	embeddedContent, _ := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, embeddedContent, writtenContent)
}

func TestApplicationInitializesUserConfiguration(testInstance *testing.T) {
	homeDirectory := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectory)
	testInstance.Setenv("XDG_CONFIG_HOME", "")
	testInstance.Setenv("TASKRUN_CONFIG_SEARCH_PATH", testInstance.TempDir())

	_, executionError := executeApplication(testInstance, "--init", "user")
	require.NoError(testInstance, executionError)

	writtenContent, readError := os.ReadFile(filepath.Join(homeDirectory, ".taskrun", "config.yaml"))
	require.NoError(testInstance, readError)
	require.NotEmpty(testInstance, writtenContent)
}
