//go:build !unix

package transport

import "syscall"

func broadcastControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
