// Package artifact models a versioned artifact set: the per-platform wheel
// files produced by one build plus the integrity metadata describing them
// (manifest, checksum record, build record, summary).
//
// Sets are immutable after creation: a new version produces a new set
// directory under builds/, named <YYYY-MM-DD>_<version>.
package artifact
