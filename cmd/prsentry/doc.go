// Prsentry reviews pull requests automatically.
//
// Each run fetches the latest pull-request event from a webhook source,
// analyzes its diff with a reasoning service grounded in the codebase,
// validates the answer, scores the commits heuristically, and posts the
// verdict as a PR comment and a Slack message.
//
// Usage:
//
//	prsentry run                          # one pipeline run against the webhook
//	prsentry run --test-only              # post a test comment, skip analysis
//	prsentry run --payload event.json     # process a saved payload
//	prsentry analyze --diff-file pr.diff  # analyze a local diff only
//	prsentry score --payload event.json   # heuristic baseline only
//	prsentry index build --codebase .     # build the retrieval index
//	prsentry config show                  # effective config, secrets masked
package main
