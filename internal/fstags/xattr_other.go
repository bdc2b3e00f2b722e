//go:build !(linux || darwin || freebsd || netbsd)

package fstags

func readTagValues(string) []string { return nil }

func writeAttribute(path, _, _ string) error { return ErrUnsupported }

func removeAttribute(string, string) error { return nil }
