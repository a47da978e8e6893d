// Package runs reads wandb run directories from disk.
//
// A wandb directory holds one subdirectory per run, named
// run-YYYYMMDD_HHMMSS-<id> (offline runs carry an "offline-" prefix). Each
// run has a binary .wandb log with the full history and, depending on how
// the run was recorded, JSON and YAML side files under files/.
//
// Loader discovers runs, merges their metadata and turns history rows into
// the per-metric columns used by the comparison view. All file access goes
// through an afero.Fs so tests can run against an in-memory filesystem.
package runs
