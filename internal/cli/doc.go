// Package cli implements the helper commands: ts, tssh, tscp, tsftp,
// trsync, tssh_copy_id and tmussh.
//
// Each helper is its own cobra root command with flag parsing disabled.
// Cobra routes `__complete` requests, prints help and generates completion
// scripts; everything else on the command line belongs to the underlying
// tool and is forwarded untouched once the helper's own --ts-* flags are
// stripped.
//
// # Flow
//
//  1. Strip helper flags (ParseOptions)
//  2. Load config (file, then TS_HELPERS_* environment)
//  3. Build the status cache in front of `tailscale status --json`
//  4. Hand the arguments to dispatch (single target) or fanout (tmussh)
//  5. Exit with the tool's own exit status
//
// Env carries every outside dependency so tests can run a whole command
// against fake status output and a recording executor.
package cli
