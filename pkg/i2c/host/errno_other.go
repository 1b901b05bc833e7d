// +build !linux

package host

import "syscall"

var nackErrnos = []syscall.Errno{syscall.ENXIO}
