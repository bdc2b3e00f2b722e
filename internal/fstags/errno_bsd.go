//go:build freebsd || netbsd

package fstags

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isMissingAttribute(err error) bool { return errors.Is(err, unix.ENOATTR) }

func isUnsupported(err error) bool { return errors.Is(err, unix.EOPNOTSUPP) }
