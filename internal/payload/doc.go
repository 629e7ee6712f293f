// Package payload fetches the webhook payload and extracts the pull-request
// event and diff a pipeline run works on.
//
// A payload is a JSON array of events; only the last one is used. Its diff
// comes from the last commit's code_changes, or from the event's own
// code_changes when the commit carries none.
package payload
