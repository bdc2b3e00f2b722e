//go:build linux || darwin || freebsd || netbsd

package fstags

import (
	"bytes"
	"fmt"

	"golang.org/x/sys/unix"
)

func readTagValues(path string) []string {
	names := listAttributes(path)
	var values []string
	for _, name := range names {
		if !IsTagAttribute(name) {
			continue
		}
		value, ok := getAttribute(path, name)
		if !ok {
			continue
		}
		value = bytes.TrimRight(value, "\x00")
		if text := string(bytes.TrimSpace(value)); text != "" {
			values = append(values, text)
		}
	}
	return values
}

func listAttributes(path string) []string {
	size, err := unix.Listxattr(path, nil)
	if err != nil || size <= 0 {
		return nil
	}
	buf := make([]byte, size)
	size, err = unix.Listxattr(path, buf)
	if err != nil || size <= 0 {
		return nil
	}
	var names []string
	for _, part := range bytes.Split(buf[:size], []byte{0}) {
		if len(part) > 0 {
			names = append(names, string(part))
		}
	}
	return names
}

func getAttribute(path, name string) ([]byte, bool) {
	size, err := unix.Getxattr(path, name, nil)
	if err != nil || size < 0 {
		return nil, false
	}
	if size == 0 {
		return nil, true
	}
	buf := make([]byte, size)
	size, err = unix.Getxattr(path, name, buf)
	if err != nil {
		return nil, false
	}
	return buf[:size], true
}

func writeAttribute(path, key, value string) error {
	if err := unix.Setxattr(path, key, []byte(value), 0); err != nil {
		if isUnsupported(err) {
			return fmt.Errorf("%w: %s", ErrUnsupported, path)
		}
		return fmt.Errorf("set %s on %s: %w", key, path, err)
	}
	return nil
}

func removeAttribute(path, key string) error {
	if err := unix.Removexattr(path, key); err != nil {
		if isMissingAttribute(err) {
			return nil
		}
		if isUnsupported(err) {
			return fmt.Errorf("%w: %s", ErrUnsupported, path)
		}
		return fmt.Errorf("remove %s from %s: %w", key, path, err)
	}
	return nil
}
