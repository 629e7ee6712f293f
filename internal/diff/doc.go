// Package diff splits unified diffs into per-file patches and maps new-file
// line numbers to the diff positions used by pull-request review comments.
package diff
