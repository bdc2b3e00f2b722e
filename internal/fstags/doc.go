// Package fstags reads and writes the free-form tags stored in a file's
// extended attributes. Any attribute whose name contains "tag" contributes to
// a file's tag set; the tag command writes a single attribute.
package fstags
