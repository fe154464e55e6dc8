package database

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// badgerLogger demotes badger's chatty info output to debug.
type badgerLogger struct {
	log logrus.FieldLogger
}

func (l badgerLogger) Errorf(f string, v ...any)   { l.log.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...any) { l.log.Warnf(f, v...) }
func (l badgerLogger) Infof(f string, v ...any)    { l.log.Debugf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...any)   { l.log.Debugf(f, v...) }

// OpenBadger opens the embedded store at path, or an in-memory one when
// path is empty.
func OpenBadger(path string, log logrus.FieldLogger) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	if log != nil {
		opts = opts.WithLogger(badgerLogger{log: log.WithField("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}
