// Package textutil provides the file stem helpers shared by the matcher and the
// scanner.
package textutil
