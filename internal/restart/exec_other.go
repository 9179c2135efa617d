//go:build !unix

package restart

import "errors"

func execve(string, []string, []string) error {
	return errors.New("in-place restart is not supported on this platform")
}
