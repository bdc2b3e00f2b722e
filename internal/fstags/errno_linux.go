package fstags

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isMissingAttribute(err error) bool { return errors.Is(err, unix.ENODATA) }

func isUnsupported(err error) bool {
	return errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP)
}
