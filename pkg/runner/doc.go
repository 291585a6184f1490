// Package runner executes heterogeneous batches of callables concurrently
// under a shared concurrency limiter. Each task gets its own execution and
// heartbeat unit; both stream lifecycle messages through one ordered channel
// consumed by a sequential callback dispatcher that aggregates outcomes into
// shared state. Timeouts come in two flavors: fixed per-attempt deadlines and
// heartbeat-extendable soft deadlines bounded by an absolute hard ceiling.
package runner
