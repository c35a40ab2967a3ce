//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package coord

import (
	"errors"
	"os"
)

var errUnsupported = errors.New("coord: file locking is not supported on this platform")

func tryLock(f *os.File, exclusive bool) (bool, error) {
	return false, errUnsupported
}

func unlock(f *os.File) error {
	return errUnsupported
}
