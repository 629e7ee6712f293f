// Package delivery sends analysis results to their destinations.
//
// A [Multiplexer] fans a [Message] out to every configured [Destination] in
// parallel and records one [Outcome] per destination. A destination that
// lacks configuration reports itself skipped; a destination that fails is
// recorded as failed without affecting the others. Nothing is retried except
// the comment destination's single switch from the "token" to the "Bearer"
// authorization scheme after a 401.
package delivery
