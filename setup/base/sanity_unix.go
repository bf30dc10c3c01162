//go:build linux || darwin || netbsd || freebsd || openbsd || solaris || dragonfly || aix
// +build linux darwin netbsd freebsd openbsd solaris dragonfly aix

package base

import (
	"syscall"

	"github.com/sirupsen/logrus"
)

func platformSanityChecks() {
	// Every console session keeps a poller and, with PostgreSQL, a share of
	// the connection pool. Complain at startup if the file descriptor limit
	// looks too low for a busy deployment.
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err == nil && rLimit.Cur < 4096 {
		logrus.Warnf("Process file descriptor limit is currently %d, consider raising it to at least 4096", rLimit.Cur)
	}
}
