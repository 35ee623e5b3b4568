package badgerdb

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/timshannon/badgerhold/v4"
)

const (
	maxRetries = 5
	gcInterval = 30 * time.Minute
)

// store stops the value log GC loop of an on-disk db when closed.
type store struct {
	*badgerhold.Store
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (s *store) Close() error {
	s.closeOnce.Do(func() {
		if s.quit != nil {
			close(s.quit)
			<-s.done
		}
	})
	return s.Store.Close()
}

func (s *store) runValueLogGC(interval time.Duration, logger badger.Logger) {
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer close(s.done)
		defer ticker.Stop()

		for {
			select {
			case <-s.quit:
				return
			case <-ticker.C:
				err := s.Badger().RunValueLogGC(0.5)
				if err != nil && err != badger.ErrNoRewrite && logger != nil {
					logger.Errorf("%s", err)
				}
			}
		}
	}()
}

func createDB(dbDir string, logger badger.Logger) (*store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	s := &store{Store: db}
	if !isInMemory {
		s.runValueLogGC(gcInterval, logger)
	}

	return s, nil
}

// openStore parses the (baseDir, logger) config shared by all repositories.
// An empty base dir opens an in-memory store.
func openStore(storeDir string, config ...interface{}) (*store, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, storeDir)
	}
	return createDB(dir, logger)
}

// withRetry retries fn on transaction conflicts.
func withRetry(fn func() error) error {
	err := fn()
	for attempts := 1; errors.Is(err, badger.ErrConflict) && attempts <= maxRetries; attempts++ {
		time.Sleep(100 * time.Millisecond)
		err = fn()
	}
	return err
}
