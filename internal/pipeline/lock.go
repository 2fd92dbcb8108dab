package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

const lockFileName = ".vsm.lock"

// dirLock keeps two runs from writing the same output directory.
type dirLock struct {
	flock *flock.Flock
}

// acquireDirLock takes the lock without blocking and fails when another
// process holds it.
func acquireDirLock(dir string) (*dirLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, lockFileName)
	fl := flock.New(path)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !acquired {
		return nil, vsmerrors.Newf("pipeline", vsmerrors.ErrInvalidInput,
			"output directory %s is locked by another run", dir)
	}
	return &dirLock{flock: fl}, nil
}

func (l *dirLock) release() error {
	return l.flock.Unlock()
}
