// Package fs provides the file system abstraction used by the local blob
// store, so tests can inject write failures.
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility for fault injection
//
// Tests inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("prices", fs.Fault{FailAfterBytes: 1024})
//
// The package has no context.Context parameters. Local file operations are
// not interruptible at the syscall level.
package fs
