package badger

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/sirupsen/logrus"
)

// Backend wraps a BadgerDB instance shared by the repositories
type Backend struct {
	db     *badger.DB
	logger *logrus.Entry
}

// badgerLogger adapts logrus to badger.Logger; badger's info chatter is
// demoted to debug.
type badgerLogger struct {
	logger *logrus.Entry
}

var _ badger.Logger = (*badgerLogger)(nil)

func (bl *badgerLogger) Errorf(msg string, items ...any)   { bl.logger.Errorf(msg, items...) }
func (bl *badgerLogger) Warningf(msg string, items ...any) { bl.logger.Warnf(msg, items...) }
func (bl *badgerLogger) Infof(msg string, items ...any)    { bl.logger.Debugf(msg, items...) }
func (bl *badgerLogger) Debugf(msg string, items ...any)   { bl.logger.Debugf(msg, items...) }

// OpenBackend opens a BadgerDB database in dir, creating the directory if needed.
// inMemory ignores dir and keeps everything in RAM.
func OpenBackend(dir string, inMemory bool, logger *logrus.Entry) (*Backend, error) {
	if logger == nil {
		logger = logrus.WithField("component", "badger")
	}

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
		opts = badger.DefaultOptions(dir)
	}

	opts.Logger = &badgerLogger{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{db: db, logger: logger}, nil
}

// Close closes the BadgerDB database
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}
