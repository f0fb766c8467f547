//go:build !unix

package cli

import "os"

func foregroundSignals() []os.Signal {
	return nil
}
