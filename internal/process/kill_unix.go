//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the whole process group of pid, which
// takes down browser helper processes along with the main one.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
