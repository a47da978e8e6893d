// Package cli implements the lowvr command-line interface.
//
// Each Cobra command parses its flags into an options struct and hands off
// to a plain function (dashCommand, runsCommand, ...) that takes an
// io.Writer, so commands can be tested without a terminal.
//
// # Command Structure
//
//	lowvr dash [wandb_dir]            - terminal comparison dashboard
//	lowvr serve [wandb_dir]           - REST API
//	lowvr runs [wandb_dir]            - list runs
//	lowvr metrics [wandb_dir] <run>   - list the metrics of one run
//	lowvr doctor [wandb_dir]          - diagnose config and directory issues
//
// # Run Sources
//
// Commands read runs through a fetch.Source. By default that is the local
// wandb directory (from the argument or wandb_dir in config). With --remote,
// or fetch.remote in config, runs come from another lowvr server instead;
// serve and doctor need a local directory and refuse a remote.
//
// # Machine Output
//
// Commands with --json write a JSONEnvelope on stdout. Errors raised while
// --json is set are written in the same envelope, with a stable code from
// mapErrorCode.
package cli
