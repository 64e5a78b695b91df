package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServeHelp(t *testing.T) {
	assert.Contains(t, serveCmd.Long, "/import/runs     recent run summaries (in-memory unless REDIS_URL is set)")
	assert.Contains(t, serveCmd.Long, "/import/cleanup  empty the catalog tables (needs DATABASE_URL)")
	assert.NotContains(t, serveCmd.Long, "(needs REDIS_URL)")
}
