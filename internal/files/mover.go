package files

import (
	"os"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

// Mover relocates a file. Tests swap in failing implementations.
type Mover interface {
	Move(from, to string) error
}

type OSMover struct{}

func (OSMover) Move(from, to string) error {
	if from == to {
		return nil
	}
	if err := os.Rename(from, to); err != nil {
		return common.NewFileWriteError(to, err)
	}
	return nil
}

type MoverFunc func(from, to string) error

func (f MoverFunc) Move(from, to string) error { return f(from, to) }
