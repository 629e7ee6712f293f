// Package redact removes secrets from diff content before it is sent to a
// reasoning service or the retriever.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs, authorization header values, and
// provider-specific tokens (Anthropic, OpenAI, NVIDIA, GitHub, Slack).
//
// [Diff] also applies path-based redaction: patches of files whose paths
// match configured glob patterns are replaced with [REDACTED] rather than
// being scanned line by line. [Mask] shortens credentials for display.
package redact
