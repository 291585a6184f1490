package runner

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// TaskFunc is a context-aware callable. It must honor cancellation so the
// timeout guard can interrupt it.
type TaskFunc func(executionContext context.Context) (any, error)

// BlockingTaskFunc is a callable without a cancellation hook. The runner
// offloads it to the bounded worker pool and abandons it when its deadline
// passes; the function keeps running until it returns on its own.
type BlockingTaskFunc func() (any, error)

const (
	anonymousCallableNameConstant = "task"
	nameSuffixSeparatorConstant   = "_"
)

type taskEntry struct {
	name             string
	contextCallable  TaskFunc
	blockingCallable BlockingTaskFunc
	configuration    *TaskConfig
}

func (entry taskEntry) blocking() bool {
	return entry.blockingCallable != nil
}

// TaskOption customizes a single AddTask registration.
type TaskOption func(*taskRegistration)

type taskRegistration struct {
	explicitName  string
	configuration *TaskConfig
}

// WithTaskName sets the task's base name instead of deriving it from the
// callable.
func WithTaskName(taskName string) TaskOption {
	return func(registration *taskRegistration) {
		registration.explicitName = taskName
	}
}

// WithTaskConfig attaches per-task overrides for timeouts, retries,
// callbacks, and metadata.
func WithTaskConfig(configuration TaskConfig) TaskOption {
	return func(registration *taskRegistration) {
		configurationCopy := configuration
		registration.configuration = &configurationCopy
	}
}

// taskRegistry keeps registered tasks in insertion order and deduplicates
// names deterministically: the first "build" stays "build", the next becomes
// "build_1", then "build_2".
type taskRegistry struct {
	entries      []taskEntry
	nameCounters map[string]int
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{nameCounters: make(map[string]int)}
}

func (registry *taskRegistry) register(callable any, options []TaskOption) (string, error) {
	registration := taskRegistration{}
	for _, option := range options {
		option(&registration)
	}

	entry := taskEntry{configuration: registration.configuration}
	switch typedCallable := callable.(type) {
	case TaskFunc:
		entry.contextCallable = typedCallable
	case func(context.Context) (any, error):
		entry.contextCallable = typedCallable
	case BlockingTaskFunc:
		entry.blockingCallable = typedCallable
	case func() (any, error):
		entry.blockingCallable = typedCallable
	default:
		return "", fmt.Errorf("runner.register: unsupported callable type %T", callable)
	}

	baseName := registration.explicitName
	if baseName == "" {
		baseName = deriveCallableName(callable)
	}
	entry.name = registry.uniqueName(baseName)
	registry.entries = append(registry.entries, entry)
	return entry.name, nil
}

func (registry *taskRegistry) uniqueName(baseName string) string {
	occurrences := registry.nameCounters[baseName]
	registry.nameCounters[baseName] = occurrences + 1
	if occurrences == 0 {
		return baseName
	}
	return fmt.Sprintf("%s%s%d", baseName, nameSuffixSeparatorConstant, occurrences)
}

// deriveCallableName extracts the trailing symbol of the callable's function
// name. Closures and method values yield their compiler-generated suffixes,
// so anonymous functions fall back to a generic name.
func deriveCallableName(callable any) string {
	callableValue := reflect.ValueOf(callable)
	if callableValue.Kind() != reflect.Func {
		return anonymousCallableNameConstant
	}
	runtimeFunction := runtime.FuncForPC(callableValue.Pointer())
	if runtimeFunction == nil {
		return anonymousCallableNameConstant
	}
	qualifiedName := runtimeFunction.Name()
	if lastDotIndex := strings.LastIndex(qualifiedName, "."); lastDotIndex >= 0 {
		qualifiedName = qualifiedName[lastDotIndex+1:]
	}
	qualifiedName = strings.TrimSuffix(qualifiedName, "-fm")
	if qualifiedName == "" || strings.HasPrefix(qualifiedName, "func") {
		return anonymousCallableNameConstant
	}
	return qualifiedName
}
