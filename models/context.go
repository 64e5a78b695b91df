package models

import (
	"context"
	"fmt"

	"github.com/assetcrawler/import-services/catalog"
	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/assetcrawler/import-services/network"
	"github.com/assetcrawler/import-services/util/logger"
	"github.com/op/go-logging"
)

// Context holds the config and the clients an import service talks
// to. RedisClient and Cleaner are nil when REDIS_URL or DATABASE_URL
// are not set.
type Context struct {
	Config      *common.Config
	Logger      *logging.Logger
	Provider    network.StorageProvider
	Transport   network.QueueTransport
	RedisClient *network.RedisClient
	Cleaner     *catalog.Cleaner
}

// NewContext builds the logger and every client the config asks for.
func NewContext(config *common.Config) (*Context, error) {
	_logger, _ := logger.InitLogger(config.LogDir, config.LogLevel)
	return NewContextWithLogger(config, _logger)
}

func NewContextWithLogger(config *common.Config, _logger *logging.Logger) (*Context, error) {
	provider, err := getStorageProvider(config)
	if err != nil {
		return nil, err
	}
	transport, err := getQueueTransport(config, _logger)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		Config:    config,
		Logger:    _logger,
		Provider:  provider,
		Transport: transport,
	}
	if config.DatabaseURL != "" {
		ctx.Cleaner, err = catalog.NewCleaner(config.DatabaseURL, _logger)
		if err != nil {
			transport.Close()
			return nil, err
		}
	}
	// Redis comes last. Nothing after it can fail.
	if config.RedisURL != "" {
		ctx.RedisClient = network.NewRedisClient(
			config.RedisURL,
			config.RedisPassword,
			config.RedisDefaultDB)
	}
	return ctx, nil
}

func getStorageProvider(config *common.Config) (network.StorageProvider, error) {
	switch config.ListingProvider {
	case constants.ListingProviderDropbox:
		return network.NewDropboxProvider(config.DropboxToken), nil
	case constants.ListingProviderLocal:
		return network.NewLocalProvider(), nil
	case constants.ListingProviderS3:
		provider := network.NewS3Provider(
			config.S3Host,
			config.S3Key,
			config.S3Secret,
			config.S3Bucket,
			config.S3UseSSL)
		provider.Region = config.S3Region
		return provider, nil
	}
	return nil, fmt.Errorf("no storage provider named '%s'", config.ListingProvider)
}

func getQueueTransport(config *common.Config, _logger *logging.Logger) (network.QueueTransport, error) {
	switch config.QueueTransport {
	case constants.QueueTransportSQS:
		client, err := network.NewSQSClient(
			context.Background(),
			config.QueueRegion,
			config.AWSAccessKeyID,
			config.AWSSecretKey,
			config.SQSEndpoint)
		if err != nil {
			return nil, err
		}
		return client, nil
	case constants.QueueTransportNSQ:
		client, err := network.NewNSQClient(config.NsqTCPAddr, _logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("no queue transport named '%s'", config.QueueTransport)
}

// Close releases the queue transport and any database or Redis
// connections. It returns the first error it sees.
func (c *Context) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(c.Transport.Close())
	if c.RedisClient != nil {
		keep(c.RedisClient.Close())
	}
	if c.Cleaner != nil {
		keep(c.Cleaner.Close())
	}
	return firstErr
}
