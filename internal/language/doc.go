// Package language normalizes track language codes and evaluates them against
// configured allow-lists.
package language
