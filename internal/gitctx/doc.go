// Package gitctx turns a local git revision range into a pull-request event.
//
// [Source] collects the range's diff and commit subjects with git and encodes
// them in the webhook payload format, so a local branch goes through the
// same pipeline as a webhook event.
package gitctx
