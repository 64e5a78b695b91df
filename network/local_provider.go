package network

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/common"
)

// LocalProvider lists a directory on the local file system. It's
// meant for development and for running imports from a mounted share.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (p *LocalProvider) Name() string {
	return constants.ListingProviderLocal
}

func (p *LocalProvider) Connect(ctx context.Context) (StorageSession, error) {
	return &localSession{}, nil
}

type localSession struct{}

// List returns the names of the regular files in dir, sorted by name.
func (s *localSession) List(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		kind := common.ListingErrorUnknown
		switch {
		case errors.Is(err, fs.ErrNotExist):
			kind = common.ListingErrorNotFound
		case errors.Is(err, fs.ErrPermission):
			kind = common.ListingErrorAuth
		}
		return nil, common.NewListingError(constants.ListingProviderLocal, dir, kind, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *localSession) Close() error {
	return nil
}
