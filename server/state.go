package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	xdr "github.com/nullstyle/go-xdr/xdr3"
	"go.uber.org/zap"

	"github.com/extremecarpaccio/carpaccio/logging"
)

const stateFilename = "state.bin"

// state is what the game needs to resume besides the players.
type state struct {
	// Seed of the question randomizer. Ticks replay the same questions for a
	// given seed.
	Seed int64
}

func saveState(datadir string, s *state) error {
	var w bytes.Buffer
	if _, err := xdr.Marshal(&w, s); err != nil {
		return fmt.Errorf("serializing: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(datadir, stateFilename), &w); err != nil {
		return fmt.Errorf("writing to disk: %w", err)
	}
	return nil
}

// loadState reads the state file of datadir or creates a new state if there
// is none. A configured seed must match the persisted one.
func loadState(ctx context.Context, datadir string, seed *int64) (*state, error) {
	logger := logging.FromContext(ctx)
	data, err := os.ReadFile(filepath.Join(datadir, stateFilename)) //#nosec G304
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s := &state{Seed: rand.Int63()}
		if seed != nil {
			s.Seed = *seed
		}
		logger.Info("created new state", zap.Int64("seed", s.Seed))
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("loading file: %w", err)
	}

	s := &state{}
	if _, err := xdr.Unmarshal(bytes.NewReader(data), s); err != nil {
		return nil, fmt.Errorf("deserializing: %w", err)
	}
	if seed != nil && *seed != s.Seed {
		return nil, fmt.Errorf("configured seed %d does not match the persisted one (%d)", *seed, s.Seed)
	}
	logger.Info("loaded state", zap.Int64("seed", s.Seed))
	return s, nil
}
