// Package retention prunes the run log.
//
// Pruning removes runs older than retention.days and then the oldest runs
// beyond retention.max_records. A Scheduler runs the pruner on a standard
// five-field cron schedule, "0 3 * * *" by default.
package retention
