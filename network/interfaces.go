package network

import (
	"context"

	"github.com/assetcrawler/import-services/models/common"
)

// StorageProvider hands out authenticated sessions on a remote storage
// service. Callers must Close every session they Connect.
type StorageProvider interface {
	Name() string
	Connect(ctx context.Context) (StorageSession, error)
}

// StorageSession lists the file names in one directory. Names are
// flat: no directory prefix, no subdirectories. Errors returned by
// Connect and List are *common.ListingError.
type StorageSession interface {
	List(ctx context.Context, dir string) ([]string, error)
	Close() error
}

// PartialLister is implemented by sessions whose last List may have
// returned only part of the directory.
type PartialLister interface {
	Truncated() bool
}

// QueueTransport sends one serialized message to a queue. It never
// retries.
type QueueTransport interface {
	Name() string
	Send(ctx context.Context, target common.QueueTarget, body string) error
	Close() error
}
