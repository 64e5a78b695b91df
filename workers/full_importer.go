package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/importer"
	"github.com/assetcrawler/import-services/models"
	"github.com/assetcrawler/import-services/models/asset"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/assetcrawler/import-services/network"
	"github.com/google/uuid"
	"github.com/op/go-logging"
)

// RunHistory stores the summary of each finished run and lists recent
// ones, newest first. It is telemetry only; nothing reads it to decide
// what to import.
type RunHistory interface {
	ImportRunSave(summary *asset.ImportRunSummary, keep int) error
	ImportRunList(limit int) ([]*asset.ImportRunSummary, error)
}

// FullImporter lists the import directory once and queues one import
// message for every iStock file in it. It keeps no state between runs,
// so running it twice queues everything twice.
type FullImporter struct {
	Directory  string
	Dispatcher *importer.Dispatcher
	Logger     *logging.Logger
	Provider   network.StorageProvider
	Target     common.QueueTarget

	// History is optional. When set, each run's summary is saved
	// there, keeping the newest HistorySize entries.
	History     RunHistory
	HistorySize int
}

// NewFullImporter builds an importer from the clients in context.
// Run history goes to Redis when it is configured, and to an in-memory
// ring otherwise.
func NewFullImporter(context *models.Context) *FullImporter {
	config := context.Config
	fullImporter := &FullImporter{
		Directory:   config.ImportDir,
		Dispatcher:  importer.NewDispatcher(context.Transport, context.Logger, config.DispatchWorkers),
		Logger:      context.Logger,
		Provider:    context.Provider,
		Target:      config.QueueTarget(),
		HistorySize: config.RunHistorySize,
	}
	if context.RedisClient != nil {
		fullImporter.History = context.RedisClient
	} else {
		fullImporter.History = NewRunRing(config.RunHistorySize)
	}
	return fullImporter
}

// RunFullImport performs one full import. If the directory cannot be
// listed, it returns a *common.ListingError and nothing is queued.
// Otherwise it returns a nil error even when some sends failed; the
// summary has the counts.
func (fi *FullImporter) RunFullImport(ctx context.Context) (*asset.ImportRunSummary, error) {
	summary := &asset.ImportRunSummary{
		RunID:     uuid.New().String(),
		Directory: fi.Directory,
		StartedAt: time.Now().UTC(),
	}
	fi.Logger.Infof("Import run %s: listing %s via %s", summary.RunID, fi.Directory, fi.Provider.Name())

	entries, truncated, err := fi.list(ctx)
	if err != nil {
		summary.Error = err.Error()
		fi.finish(summary)
		if listingErr, ok := err.(*common.ListingError); ok {
			fi.Logger.Error(listingErr.Detail())
		} else {
			fi.Logger.Error(err.Error())
		}
		return summary, err
	}
	summary.Entries = len(entries)
	summary.Truncated = truncated
	if truncated {
		truncatedListingsTotal.WithLabelValues(fi.Provider.Name()).Inc()
		fi.Logger.Warningf("Import run %s: %s returned only part of %s; files past the first page are not queued",
			summary.RunID, fi.Provider.Name(), fi.Directory)
	}

	var skipped atomic.Int64
	extractor := importer.NewExtractor(fi.Logger)
	extractor.OnSkip = func(*common.ExtractionError) {
		skipped.Add(1)
	}
	counts := fi.Dispatcher.DispatchAll(ctx, extractor.Process(entries), fi.Target)

	summary.Skipped = int(skipped.Load())
	summary.Attempted = counts.Attempted
	summary.Dispatched = counts.Dispatched
	summary.Failed = counts.Failed
	fi.finish(summary)
	fi.Logger.Infof("Import run %s finished: %d entries, %d skipped, %d attempted, %d queued, %d failed",
		summary.RunID, summary.Entries, summary.Skipped, summary.Attempted, summary.Dispatched, summary.Failed)
	return summary, nil
}

// list opens a session, lists the directory and closes the session,
// whatever the outcome. truncated is true if the session says the
// listing is incomplete.
func (fi *FullImporter) list(ctx context.Context) (entries []string, truncated bool, err error) {
	session, err := fi.Provider.Connect(ctx)
	if err != nil {
		return nil, false, fi.asListingError(err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			fi.Logger.Warningf("Error closing %s session: %v", fi.Provider.Name(), closeErr)
		}
	}()
	entries, err = session.List(ctx, fi.Directory)
	if err != nil {
		return nil, false, fi.asListingError(err)
	}
	if partial, ok := session.(network.PartialLister); ok {
		truncated = partial.Truncated()
	}
	return entries, truncated, nil
}

func (fi *FullImporter) asListingError(err error) error {
	var listingErr *common.ListingError
	if errors.As(err, &listingErr) {
		return listingErr
	}
	return common.NewListingError(fi.Provider.Name(), fi.Directory, common.ListingErrorUnknown, err)
}

// finish stamps the summary, updates metrics and saves it to the run
// history. A history failure is logged and otherwise ignored.
func (fi *FullImporter) finish(summary *asset.ImportRunSummary) {
	summary.FinishedAt = time.Now().UTC()
	outcome := constants.OutcomeSucceeded
	if !summary.Succeeded() {
		outcome = constants.OutcomeFailed
	}
	importRunsTotal.WithLabelValues(fi.Provider.Name(), outcome).Inc()
	lastRunEntries.WithLabelValues("listed").Set(float64(summary.Entries))
	lastRunEntries.WithLabelValues("skipped").Set(float64(summary.Skipped))
	lastRunEntries.WithLabelValues("dispatched").Set(float64(summary.Dispatched))
	lastRunEntries.WithLabelValues("failed").Set(float64(summary.Failed))
	lastRunTimestamp.Set(float64(summary.FinishedAt.Unix()))

	if fi.History == nil {
		return
	}
	if err := fi.History.ImportRunSave(summary, fi.HistorySize); err != nil {
		fi.Logger.Warningf("Could not save summary of run %s: %v", summary.RunID, err)
	}
}
