package network_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/assetcrawler/import-services/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"iStock_123_large.jpg", "readme.txt", "iStock_abc_thumb.png"} {
		require.Nil(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.Nil(t, os.Mkdir(filepath.Join(dir, "iStock_dir_folder"), 0755))

	provider := network.NewLocalProvider()
	assert.Equal(t, constants.ListingProviderLocal, provider.Name())

	session, err := provider.Connect(context.Background())
	require.Nil(t, err)
	defer session.Close()

	names, err := session.List(context.Background(), dir)
	require.Nil(t, err)
	assert.Equal(t, []string{"iStock_123_large.jpg", "iStock_abc_thumb.png", "readme.txt"}, names)
}

func TestLocalProviderMissingDir(t *testing.T) {
	session, err := network.NewLocalProvider().Connect(context.Background())
	require.Nil(t, err)

	names, err := session.List(context.Background(), "/no/such/import/dir")
	assert.Nil(t, names)
	var listingErr *common.ListingError
	require.True(t, errors.As(err, &listingErr))
	assert.Equal(t, common.ListingErrorNotFound, listingErr.Kind)
	assert.Equal(t, "/no/such/import/dir", listingErr.Directory)
}
