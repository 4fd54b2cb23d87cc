// Package redact replaces detected entities in a transcript with category
// tags such as "[NAME]".
//
// Two policies are available. PolicyLongest (the default) scans the text
// once and, at every position, replaces the longest entity text that starts
// there; replaced spans and inserted tags are never scanned again, so one
// entity cannot corrupt another's tag. PolicySequential replaces each
// entity's text everywhere in turn, in input order, and exists for parity
// with older exports.
package redact
