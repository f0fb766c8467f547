//go:build unix

package cli

import (
	"os"
	"syscall"
)

// foregroundSignals сигналы, по которым демон немедленно забирает изменения
func foregroundSignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1}
}
