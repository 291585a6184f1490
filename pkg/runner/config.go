package runner

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxConcurrencyConstant    = 10
	defaultHeartbeatIntervalConstant = 10 * time.Second
	defaultPollIntervalConstant      = time.Second
	defaultHardTimeoutFactorConstant = 5
	defaultRetryMaxAttemptsConstant  = 3
	defaultRetryInitialDelayConstant = 500 * time.Millisecond
	defaultRetryMaxDelayConstant     = 30 * time.Second
	defaultRetryMultiplierConstant   = 2.0
	defaultWorkerPoolSizeConstant    = 16
)

// RetryPolicy bounds the attempt loop of a failing task and shapes the
// randomized exponential delay between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	// InitialDelay seeds the backoff sequence.
	InitialDelay time.Duration
	// MaxDelay caps the grown delay before jitter is applied.
	MaxDelay time.Duration
	// Multiplier grows the delay between consecutive attempts.
	Multiplier float64
}

// DefaultRetryPolicy returns the policy applied when retries are enabled
// without an explicit policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  defaultRetryMaxAttemptsConstant,
		InitialDelay: defaultRetryInitialDelayConstant,
		MaxDelay:     defaultRetryMaxDelayConstant,
		Multiplier:   defaultRetryMultiplierConstant,
	}
}

func (policy RetryPolicy) sanitized() RetryPolicy {
	sanitizedPolicy := policy
	if sanitizedPolicy.MaxAttempts < 1 {
		sanitizedPolicy.MaxAttempts = defaultRetryMaxAttemptsConstant
	}
	if sanitizedPolicy.InitialDelay <= 0 {
		sanitizedPolicy.InitialDelay = defaultRetryInitialDelayConstant
	}
	if sanitizedPolicy.MaxDelay <= 0 {
		sanitizedPolicy.MaxDelay = defaultRetryMaxDelayConstant
	}
	if sanitizedPolicy.MaxDelay < sanitizedPolicy.InitialDelay {
		sanitizedPolicy.MaxDelay = sanitizedPolicy.InitialDelay
	}
	if sanitizedPolicy.Multiplier < 1 {
		sanitizedPolicy.Multiplier = defaultRetryMultiplierConstant
	}
	return sanitizedPolicy
}

// delayForAttempt computes the randomized exponential delay applied before the
// given attempt number (2 = first retry). The jittered result lies between
// half of the grown delay and the grown delay itself.
func (policy RetryPolicy) delayForAttempt(attemptNumber int) time.Duration {
	grownDelay := policy.InitialDelay
	for retryIndex := 2; retryIndex < attemptNumber; retryIndex++ {
		grownDelay = time.Duration(float64(grownDelay) * policy.Multiplier)
		if grownDelay >= policy.MaxDelay {
			grownDelay = policy.MaxDelay
			break
		}
	}
	if grownDelay > policy.MaxDelay {
		grownDelay = policy.MaxDelay
	}
	halfDelay := grownDelay / 2
	if halfDelay <= 0 {
		return grownDelay
	}
	return halfDelay + time.Duration(rand.Int63n(int64(halfDelay)+1))
}

// Config holds the runner-wide defaults applied to every task that does not
// override them.
type Config struct {
	// MaxConcurrency bounds the number of task attempts running at once.
	MaxConcurrency int
	// Timeout is the per-attempt soft deadline. Zero means unbounded.
	Timeout time.Duration
	// HardTimeout is the absolute per-attempt ceiling. When zero and
	// HeartbeatExtendsTimeout is set it defaults to five times Timeout;
	// otherwise it equals Timeout.
	HardTimeout time.Duration
	// HeartbeatExtendsTimeout switches the soft deadline to a liveness
	// clock refreshed by heartbeats.
	HeartbeatExtendsTimeout bool
	// HeartbeatInterval spaces the per-task heartbeat messages.
	HeartbeatInterval time.Duration
	// PollInterval paces the extendable timeout guard's deadline checks.
	PollInterval time.Duration
	// RetryEnabled turns on the attempt loop for failing tasks.
	RetryEnabled bool
	// RetryPolicy shapes the attempt loop; zero value means defaults.
	RetryPolicy RetryPolicy
	// WorkerPoolSize bounds the pool executing blocking callables.
	WorkerPoolSize int
	// Callbacks overrides the built-in handler per message kind.
	Callbacks map[MessageKind]Callback
	// DisableDefaultCallbacks suppresses the built-in handlers for kinds
	// without an explicit callback.
	DisableDefaultCallbacks bool
	// SharedState receives aggregated outcomes; nil allocates a fresh one.
	SharedState *SharedState
	// Logger receives lifecycle diagnostics; nil disables logging.
	Logger *zap.Logger
	// Verbose narrates every lifecycle message through Logger.
	Verbose bool
}

func (configuration Config) sanitized() Config {
	sanitizedConfiguration := configuration
	if sanitizedConfiguration.MaxConcurrency < 1 {
		sanitizedConfiguration.MaxConcurrency = defaultMaxConcurrencyConstant
	}
	if sanitizedConfiguration.HeartbeatInterval <= 0 {
		sanitizedConfiguration.HeartbeatInterval = defaultHeartbeatIntervalConstant
	}
	if sanitizedConfiguration.PollInterval <= 0 {
		sanitizedConfiguration.PollInterval = defaultPollIntervalConstant
	}
	if sanitizedConfiguration.WorkerPoolSize < 1 {
		sanitizedConfiguration.WorkerPoolSize = defaultWorkerPoolSizeConstant
	}
	if sanitizedConfiguration.RetryEnabled {
		sanitizedConfiguration.RetryPolicy = sanitizedConfiguration.RetryPolicy.sanitized()
	}
	if sanitizedConfiguration.Logger == nil {
		sanitizedConfiguration.Logger = zap.NewNop()
	}
	return sanitizedConfiguration
}

// TaskConfig overrides runner defaults for one task. Nil pointer fields
// inherit the runner configuration.
type TaskConfig struct {
	Timeout                 *time.Duration
	HardTimeout             *time.Duration
	HeartbeatExtendsTimeout *bool
	HeartbeatInterval       *time.Duration
	RetryEnabled            *bool
	RetryPolicy             *RetryPolicy
	// Callbacks overrides runner and built-in handlers for this task only.
	Callbacks map[MessageKind]Callback
	// Metadata is attached verbatim to every message the task produces.
	Metadata map[string]any
}

// taskSettings is the fully resolved per-task view of Config plus TaskConfig.
type taskSettings struct {
	timeout                 time.Duration
	hardTimeout             time.Duration
	heartbeatExtendsTimeout bool
	heartbeatInterval       time.Duration
	pollInterval            time.Duration
	retryEnabled            bool
	retryPolicy             RetryPolicy
	callbacks               map[MessageKind]Callback
	metadata                map[string]any
}

func resolveTaskSettings(configuration Config, overrides *TaskConfig) taskSettings {
	settings := taskSettings{
		timeout:                 configuration.Timeout,
		hardTimeout:             configuration.HardTimeout,
		heartbeatExtendsTimeout: configuration.HeartbeatExtendsTimeout,
		heartbeatInterval:       configuration.HeartbeatInterval,
		pollInterval:            configuration.PollInterval,
		retryEnabled:            configuration.RetryEnabled,
		retryPolicy:             configuration.RetryPolicy,
	}
	if overrides != nil {
		if overrides.Timeout != nil {
			settings.timeout = *overrides.Timeout
		}
		if overrides.HardTimeout != nil {
			settings.hardTimeout = *overrides.HardTimeout
		}
		if overrides.HeartbeatExtendsTimeout != nil {
			settings.heartbeatExtendsTimeout = *overrides.HeartbeatExtendsTimeout
		}
		if overrides.HeartbeatInterval != nil {
			settings.heartbeatInterval = *overrides.HeartbeatInterval
		}
		if overrides.RetryEnabled != nil {
			settings.retryEnabled = *overrides.RetryEnabled
		}
		if overrides.RetryPolicy != nil {
			settings.retryPolicy = *overrides.RetryPolicy
		}
		settings.callbacks = overrides.Callbacks
		settings.metadata = overrides.Metadata
	}
	if settings.retryEnabled {
		settings.retryPolicy = settings.retryPolicy.sanitized()
	} else {
		settings.retryPolicy.MaxAttempts = 1
	}
	settings.hardTimeout = resolveHardTimeout(settings.timeout, settings.hardTimeout, settings.heartbeatExtendsTimeout)
	return settings
}

// resolveHardTimeout enforces the hard ceiling invariant: without heartbeat
// extension the hard deadline equals the soft one; with extension it defaults
// to five times the soft deadline and never drops below it.
func resolveHardTimeout(softTimeout time.Duration, hardTimeout time.Duration, extendable bool) time.Duration {
	if softTimeout <= 0 {
		if extendable {
			return hardTimeout
		}
		return 0
	}
	if !extendable {
		return softTimeout
	}
	if hardTimeout <= 0 {
		return softTimeout * defaultHardTimeoutFactorConstant
	}
	if hardTimeout < softTimeout {
		return softTimeout
	}
	return hardTimeout
}
