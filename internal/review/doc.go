// Package review contains the analysis types, the retrieval-augmented
// analysis engine and the response validator.
//
// [Engine.Analyze] retrieves codebase context for a diff, fills the
// mode-specific prompt and returns the reasoning service's raw text. Secrets
// are redacted from the diff before it leaves the process.
//
// [Validate] turns that text into a [Result]. Output wrapped in a fenced
// block is unwrapped first; the JSON object is then checked against the
// response schema. Output that breaks the contract never fails the caller:
// it becomes a single CRITICAL "Parsing Error" concern carrying the raw text,
// reported alongside a *[ParseError].
package review
