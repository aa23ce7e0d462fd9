// Package workflow advances jobs through the processing stage.
//
// The Manager polls the job store, claims queued jobs one at a time, and
// feeds them into the registered stage handler while capturing progress and
// failure metadata. Jobs stranded in processing by an unclean shutdown are
// re-queued when the manager starts.
package workflow
