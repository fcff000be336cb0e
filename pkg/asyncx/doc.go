// Package asyncx provides small generic concurrency helpers.
//
// Pool and PoolSettled run a bounded number of workers over a slice of
// items, preserving input order in the results. Pool short-circuits on the
// first error; PoolSettled always returns one Result per item, which is the
// right shape when partial outcomes must be inspected before deciding
// whether the whole batch failed.
//
// RetryWithBackoff and WithTimeout wrap a single context-aware call with
// transport-level resilience. They belong at call sites that talk to
// external services, not inside domain logic.
package asyncx
