// Package audio validates call recordings before upload and fingerprints
// them so repeated scans of the same recording can be grouped in the history
// database.
package audio
