package runner

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func namedProbeTask(_ context.Context) (any, error) {
	return "probe", nil
}

func TestRegistryDeduplicatesNamesDeterministically(testInstance *testing.T) {
	registry := newTaskRegistry()
	callable := TaskFunc(func(_ context.Context) (any, error) { return nil, nil })

	expectedNames := []string{"build", "build_1", "build_2"}
	for _, expectedName := range expectedNames {
		assignedName, registrationError := registry.register(callable, []TaskOption{WithTaskName("build")})
		require.NoError(testInstance, registrationError)
		require.Equal(testInstance, expectedName, assignedName)
	}
}

func TestRegistryDerivesNameFromCallable(testInstance *testing.T) {
	registry := newTaskRegistry()
	assignedName, registrationError := registry.register(namedProbeTask, nil)
	require.NoError(testInstance, registrationError)
	require.Equal(testInstance, "namedProbeTask", assignedName)
}

func TestRegistryFallsBackToGenericNameForClosures(testInstance *testing.T) {
	registry := newTaskRegistry()
	assignedName, registrationError := registry.register(func(_ context.Context) (any, error) { return nil, nil }, nil)
	require.NoError(testInstance, registrationError)
	require.Equal(testInstance, "task", assignedName)
}

func TestRegistryAcceptsSupportedCallableShapes(testInstance *testing.T) {
	testCases := []struct {
		name             string
		callable         any
		expectedBlocking bool
		expectError      bool
	}{
		{name: "task_func", callable: TaskFunc(func(_ context.Context) (any, error) { return nil, nil })},
		{name: "raw_context_func", callable: func(_ context.Context) (any, error) { return nil, nil }},
		{name: "blocking_task_func", callable: BlockingTaskFunc(func() (any, error) { return nil, nil }), expectedBlocking: true},
		{name: "raw_blocking_func", callable: func() (any, error) { return nil, nil }, expectedBlocking: true},
		{name: "unsupported_shape", callable: func(value int) int { return value }, expectError: true},
		{name: "not_a_function", callable: 42, expectError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			registry := newTaskRegistry()
			_, registrationError := registry.register(testCase.callable, nil)
			if testCase.expectError {
				require.Error(testInstance, registrationError)
				return
			}
			require.NoError(testInstance, registrationError)
			require.Equal(testInstance, testCase.expectedBlocking, registry.entries[0].blocking())
		})
	}
}
