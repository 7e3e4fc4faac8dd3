//go:build !windows

package priority

import (
	"errors"
	"syscall"
)

// setNice lowers pid's scheduling priority. Raising priority back would need
// privileges, but all callers only ever lower it, which any owner may do.
func setNice(pid, niceness int) error {
	return syscall.Setpriority(syscall.PRIO_PROCESS, pid, niceness)
}

func isPermissionDenied(err error) bool {
	return errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) ||
		errors.Is(err, syscall.ENOSYS)
}
