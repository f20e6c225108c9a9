//go:build windows

package commands

import (
	"os"
)

func signals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
