// Package failure defines the error kinds golfr reports for a conversion.
//
// Every error that reaches a user passes through Wrap so it names the
// offending file and, for parse failures, the 1-based line number. Callers
// classify errors with errors.Is against the exported kinds, or with KindOf
// when a stable label is needed for logs and the history ledger.
package failure
