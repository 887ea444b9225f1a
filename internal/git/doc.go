// Package git provides low-level Git operations for the twiggy core.
//
// It wraps git command execution and go-git object access and provides a
// Go-friendly interface for:
//   - Snapshot reads (refs, HEAD, commit metadata; topology only, no diffs)
//   - Ref updates with compare-and-swap semantics
//   - Merge, rebase and cherry-pick primitives with conflict detection
//
// This package should be the only place where direct git commands are executed.
package git
