package network

import (
	"fmt"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/asset"
	"github.com/go-redis/redis/v7"
)

// RedisClient keeps the history of import runs. The history is for
// operators; the crawler never reads it to decide what to import.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(address, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisClient) Ping() (string, error) {
	return c.client.Ping().Result()
}

// ImportRunSave pushes summary onto the front of the run history and
// trims the history to the newest keep entries.
func (c *RedisClient) ImportRunSave(summary *asset.ImportRunSummary, keep int) error {
	jsonData, err := summary.ToJSON()
	if err != nil {
		return err
	}
	if keep < 1 {
		keep = 1
	}
	pipe := c.client.TxPipeline()
	pipe.LPush(constants.RedisKeyImportRuns, jsonData)
	pipe.LTrim(constants.RedisKeyImportRuns, 0, int64(keep-1))
	if _, err = pipe.Exec(); err != nil {
		return fmt.Errorf("ImportRunSave (%s): %s", summary.RunID, err.Error())
	}
	return nil
}

// ImportRunList returns up to limit summaries, newest first.
func (c *RedisClient) ImportRunList(limit int) ([]*asset.ImportRunSummary, error) {
	if limit < 1 {
		return []*asset.ImportRunSummary{}, nil
	}
	items, err := c.client.LRange(constants.RedisKeyImportRuns, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("ImportRunList: %s", err.Error())
	}
	summaries := make([]*asset.ImportRunSummary, 0, len(items))
	for _, item := range items {
		summary, err := asset.ImportRunSummaryFromJSON(item)
		if err != nil {
			return nil, fmt.Errorf("ImportRunList: bad history entry: %s", err.Error())
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (c *RedisClient) Close() error {
	return c.client.Close()
}
