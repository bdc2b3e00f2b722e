// Package classify partitions file groups by track counts and language
// allow-lists.
//
// Split separates OK groups from groups with issues, SplitNameMismatch peels
// groups whose track names differ from their suggested names off the OK set,
// and BucketIssues routes every issue group to exactly one issue bucket.
// NonHEVC is an independent view over video codecs. Every function is pure:
// the same rows and rules always produce the same partition.
package classify
