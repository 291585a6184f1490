package batch

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	definitionLoadErrorTemplateConstant       = "failed to load batch definition: %w"
	definitionParseErrorTemplateConstant      = "failed to parse batch definition: %w"
	definitionPathRequiredMessageConstant     = "batch definition path must be provided"
	definitionEmptyTasksMessageConstant       = "batch definition must define at least one task"
	definitionCommandMissingTemplateConstant  = "batch task %d missing command"
	definitionTasksSequenceMessageConstant    = "tasks block must be defined as a sequence of tasks"
	definitionInvalidDurationTemplateConstant = "batch task %q has invalid %s value %q: %w"
	definitionTimeoutFieldNameConstant        = "timeout"
	definitionHardTimeoutFieldNameConstant    = "hard_timeout"
	definitionInvalidAttemptsTemplateConstant = "batch task %q retry max_attempts must be positive, got %d"
)

// Definition describes the tasks loaded from a batch YAML file.
type Definition struct {
	Tasks []TaskDefinition
}

type batchFile struct {
	Tasks []TaskDefinition `yaml:"tasks" json:"tasks"`
}

// TaskDefinition declares one command invocation with optional per-task
// timeout and retry overrides.
type TaskDefinition struct {
	Name                    string            `yaml:"name" json:"name"`
	Command                 string            `yaml:"command" json:"command"`
	Arguments               []string          `yaml:"arguments" json:"arguments"`
	WorkingDirectory        string            `yaml:"working_directory" json:"working_directory"`
	Environment             map[string]string `yaml:"environment" json:"environment"`
	Timeout                 string            `yaml:"timeout" json:"timeout"`
	HardTimeout             string            `yaml:"hard_timeout" json:"hard_timeout"`
	HeartbeatExtendsTimeout *bool             `yaml:"heartbeat_extends_timeout" json:"heartbeat_extends_timeout"`
	Retry                   *RetryDefinition  `yaml:"retry" json:"retry"`
}

// RetryDefinition enables retries for one task.
type RetryDefinition struct {
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// TimeoutDuration parses the task's soft timeout. An empty value yields zero.
func (definition TaskDefinition) TimeoutDuration() (time.Duration, error) {
	return definition.parseDurationField(definition.Timeout, definitionTimeoutFieldNameConstant)
}

// HardTimeoutDuration parses the task's hard timeout. An empty value yields zero.
func (definition TaskDefinition) HardTimeoutDuration() (time.Duration, error) {
	return definition.parseDurationField(definition.HardTimeout, definitionHardTimeoutFieldNameConstant)
}

func (definition TaskDefinition) parseDurationField(rawValue string, fieldName string) (time.Duration, error) {
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		return 0, nil
	}
	parsedValue, parseError := time.ParseDuration(trimmedValue)
	if parseError != nil {
		return 0, fmt.Errorf(definitionInvalidDurationTemplateConstant, definition.Name, fieldName, trimmedValue, parseError)
	}
	return parsedValue, nil
}

// LoadDefinition reads the batch definition from disk and performs basic validation.
func LoadDefinition(filePath string) (Definition, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Definition{}, errors.New(definitionPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Definition{}, fmt.Errorf(definitionLoadErrorTemplateConstant, readError)
	}

	return ParseDefinition(contentBytes)
}

// ParseDefinition decodes and validates a batch definition document.
func ParseDefinition(contentBytes []byte) (Definition, error) {
	var parsedBatch batchFile
	if unmarshalError := yaml.Unmarshal(contentBytes, &parsedBatch); unmarshalError != nil {
		return Definition{}, fmt.Errorf(definitionParseErrorTemplateConstant, unmarshalError)
	}

	if sequenceError := ensureTaskSequence(contentBytes); sequenceError != nil {
		return Definition{}, fmt.Errorf(definitionParseErrorTemplateConstant, sequenceError)
	}

	definition := Definition{Tasks: parsedBatch.Tasks}
	if len(definition.Tasks) == 0 {
		return Definition{}, errors.New(definitionEmptyTasksMessageConstant)
	}

	for taskIndex := range definition.Tasks {
		definition.Tasks[taskIndex].Name = strings.TrimSpace(definition.Tasks[taskIndex].Name)
		definition.Tasks[taskIndex].Command = strings.TrimSpace(definition.Tasks[taskIndex].Command)
		if len(definition.Tasks[taskIndex].Command) == 0 {
			return Definition{}, fmt.Errorf(definitionCommandMissingTemplateConstant, taskIndex+1)
		}
		if len(definition.Tasks[taskIndex].Name) == 0 {
			definition.Tasks[taskIndex].Name = definition.Tasks[taskIndex].Command
		}

		if _, timeoutError := definition.Tasks[taskIndex].TimeoutDuration(); timeoutError != nil {
			return Definition{}, timeoutError
		}
		if _, hardTimeoutError := definition.Tasks[taskIndex].HardTimeoutDuration(); hardTimeoutError != nil {
			return Definition{}, hardTimeoutError
		}

		retryDefinition := definition.Tasks[taskIndex].Retry
		if retryDefinition != nil && retryDefinition.MaxAttempts < 1 {
			return Definition{}, fmt.Errorf(definitionInvalidAttemptsTemplateConstant, definition.Tasks[taskIndex].Name, retryDefinition.MaxAttempts)
		}
	}

	return definition, nil
}

func ensureTaskSequence(contentBytes []byte) error {
	var batchWrapper struct {
		Tasks yaml.Node `yaml:"tasks" json:"tasks"`
	}

	if unmarshalError := yaml.Unmarshal(contentBytes, &batchWrapper); unmarshalError != nil {
		return unmarshalError
	}

	if batchWrapper.Tasks.Kind == 0 {
		return nil
	}

	switch batchWrapper.Tasks.Kind {
	case yaml.SequenceNode:
		return nil
	default:
		return errors.New(definitionTasksSequenceMessageConstant)
	}
}
