// Package runlog records evaluations: which model ran in which mode with
// which roles, how many records it produced, how long it took and how it
// failed.
//
// Two backends implement Store. MemoryStore keeps a bounded window of runs
// and is the default. SQLiteStore persists runs with modernc.org/sqlite,
// so no cgo toolchain is needed:
//
//	store, err := runlog.Open(&cfg.RunLog, logger)
//	run := runlog.NewRun("monitor", "list", roles)
//	records, err := eng.Items(ctx, root, in)
//	run.Finish(len(records), err)
//	_ = store.Record(ctx, run)
//
// The retention subpackage prunes runs by age and count on a cron schedule.
package runlog
