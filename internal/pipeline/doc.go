// Package pipeline runs one pull-request event from webhook fetch to
// delivery.
//
// Stages run in order: FETCHING, EXTRACTING, ANALYZING, VALIDATING, SCORING,
// DELIVERING, DONE. Test mode replaces everything after EXTRACTING with a
// single TEST_SHORTCUT comment. Only fetch, extraction and analysis failures
// stop a run; they are returned as *[StageError]. Unparseable model output
// and delivery failures are recorded in the [Report] instead.
package pipeline
