package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/assetcrawler/import-services/catalog"
	"github.com/assetcrawler/import-services/importer"
	"github.com/assetcrawler/import-services/models/asset"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/assetcrawler/import-services/network"
	"github.com/assetcrawler/import-services/util/logger"
	"github.com/assetcrawler/import-services/util/testutil"
	"github.com/assetcrawler/import-services/web"
	"github.com/assetcrawler/import-services/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	err error
}

func (s *stubRunner) RunFullImport(ctx context.Context) (*asset.ImportRunSummary, error) {
	if s.err != nil {
		return &asset.ImportRunSummary{Error: s.err.Error()}, s.err
	}
	return &asset.ImportRunSummary{RunID: "run-1"}, nil
}

type stubCleaner struct {
	err error
}

func (s *stubCleaner) Cleanup(ctx context.Context) (*catalog.CleanupResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.CleanupResult{RowsDeleted: map[string]int64{"asset": 7, "tag": 2, "asset_tag_relation": 9}}, nil
}

func serve(svc *web.ImportService, method, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, nil)
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)
	return rec
}

func TestFullImportEndpoint(t *testing.T) {
	provider := &testutil.MockStorageProvider{
		Entries: []string{"iStock_123_large.jpg", "readme.txt", "iStock_abc_thumb.png"},
	}
	transport := &testutil.MockQueueTransport{}
	log := logger.Discard()
	svc := &web.ImportService{
		Importer: &workers.FullImporter{
			Directory:  "/istock",
			Dispatcher: importer.NewDispatcher(transport, log, 1),
			Logger:     log,
			Provider:   provider,
			Target:     common.QueueTarget{URL: "asset_import"},
		},
		Logger: log,
	}

	rec := serve(svc, http.MethodGet, "/import/full")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Len(t, transport.Sent(), 2)
}

func TestFullImportEndpointPartialFailureIsStillOK(t *testing.T) {
	provider := &testutil.MockStorageProvider{Entries: []string{"iStock_1_a.jpg", "iStock_2_b.jpg"}}
	transport := &testutil.MockQueueTransport{
		FailErr:  errors.New("throttled"),
		FailWhen: func(body string) bool { return strings.Contains(body, `"externalId":"1"`) },
	}
	log := logger.Discard()
	svc := &web.ImportService{
		Importer: &workers.FullImporter{
			Dispatcher: importer.NewDispatcher(transport, log, 1),
			Logger:     log,
			Provider:   provider,
		},
		Logger: log,
	}
	rec := serve(svc, http.MethodGet, "/import/full")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, transport.Calls())
}

func TestFullImportEndpointListingFailure(t *testing.T) {
	listErr := common.NewListingError("dropbox", "/istock", common.ListingErrorAuth, errors.New("invalid_access_token"))
	svc := &web.ImportService{Importer: &stubRunner{err: listErr}, Logger: logger.Discard()}
	rec := serve(svc, http.MethodGet, "/import/full")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_access_token")
}

func TestFullImportEndpointOtherFailure(t *testing.T) {
	svc := &web.ImportService{Importer: &stubRunner{err: errors.New("boom")}, Logger: logger.Discard()}
	rec := serve(svc, http.MethodGet, "/import/full")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFullImportEndpointRejectsPost(t *testing.T) {
	svc := &web.ImportService{Importer: &stubRunner{}, Logger: logger.Discard()}
	rec := serve(svc, http.MethodPost, "/import/full")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRunsEndpoint(t *testing.T) {
	redisServer := testutil.NewRedisServer()
	defer redisServer.Close()
	redisClient := network.NewRedisClient(redisServer.Addr(), "", 0)
	defer redisClient.Close()
	for _, id := range []string{"run-a", "run-b", "run-c"} {
		require.Nil(t, redisClient.ImportRunSave(&asset.ImportRunSummary{RunID: id}, 10))
	}

	svc := &web.ImportService{History: redisClient, HistorySize: 10, Logger: logger.Discard()}
	rec := serve(svc, http.MethodGet, "/import/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []*asset.ImportRunSummary
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 3)
	assert.Equal(t, "run-c", summaries[0].RunID)

	rec = serve(svc, http.MethodGet, "/import/runs?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	assert.Len(t, summaries, 1)

	rec = serve(svc, http.MethodGet, "/import/runs?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunsEndpointWithoutHistory(t *testing.T) {
	svc := &web.ImportService{Logger: logger.Discard()}
	rec := serve(svc, http.MethodGet, "/import/runs")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCleanupEndpoint(t *testing.T) {
	svc := &web.ImportService{Cleaner: &stubCleaner{}, Logger: logger.Discard()}
	rec := serve(svc, http.MethodPost, "/import/cleanup")
	require.Equal(t, http.StatusOK, rec.Code)
	result := &catalog.CleanupResult{}
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), result))
	assert.Equal(t, int64(7), result.RowsDeleted["asset"])

	svc.Cleaner = &stubCleaner{err: errors.New("deadlock detected")}
	rec = serve(svc, http.MethodPost, "/import/cleanup")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(svc, http.MethodGet, "/import/cleanup")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCleanupEndpointDisabled(t *testing.T) {
	svc := &web.ImportService{Logger: logger.Discard()}
	rec := serve(svc, http.MethodPost, "/import/cleanup")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), common.ErrCleanupDisabled.Error())
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	svc := &web.ImportService{Logger: logger.Discard()}
	rec := serve(svc, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(svc, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	svc := &web.ImportService{Logger: logger.Discard()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx, "127.0.0.1:0", time.Second)
	}()
	cancel()
	assert.Nil(t, <-done)
}
