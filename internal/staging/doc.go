// Package staging finds and removes the scratch artifacts a conversion leaves
// in an output directory when the process dies before committing: partial
// outputs from fileutil.TempSibling, av1 work directories and orphaned
// per-output lock files.
package staging
