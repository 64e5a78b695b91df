package importer

import (
	"iter"
	"path"
	"regexp"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/asset"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/op/go-logging"
)

// The id runs from after "iStock_" up to the last underscore, so
// "iStock_12_34_large.jpg" has id "12_34".
var externalIDPattern = regexp.MustCompile(`^iStock_(.*)_`)

// Extractor turns directory entries into asset descriptors.
type Extractor struct {
	Logger *logging.Logger

	// OnSkip, if set, is called for each candidate entry whose name
	// cannot be parsed.
	OnSkip func(err *common.ExtractionError)
}

func NewExtractor(logger *logging.Logger) *Extractor {
	return &Extractor{Logger: logger}
}

// IsCandidate returns true if name matches the iStock naming glob.
func IsCandidate(name string) bool {
	matched, err := path.Match(constants.CandidateGlob, name)
	return err == nil && matched
}

// Extract returns the descriptor for name. It returns
// common.ErrNotCandidate if name does not match the naming glob, and a
// *common.ExtractionError if it matches the glob but has no id.
func Extract(name string) (*asset.Descriptor, error) {
	if !IsCandidate(name) {
		return nil, common.ErrNotCandidate
	}
	match := externalIDPattern.FindStringSubmatch(name)
	if match == nil || match[1] == "" {
		return nil, &common.ExtractionError{Filename: name}
	}
	return asset.NewIStockDescriptor(match[1], name)
}

// Process yields one descriptor per candidate entry, in the order the
// entries arrive. Entries that are not candidates are ignored. Malformed
// candidates are logged and skipped; they never stop the sequence.
func (e *Extractor) Process(entries []string) iter.Seq[asset.Descriptor] {
	return func(yield func(asset.Descriptor) bool) {
		for _, name := range entries {
			descriptor, err := Extract(name)
			if err == common.ErrNotCandidate {
				e.Logger.Debugf("Skipping %s: not an iStock file", name)
				continue
			}
			if err != nil {
				e.skip(name, err)
				continue
			}
			if !yield(*descriptor) {
				return
			}
		}
	}
}

func (e *Extractor) skip(name string, err error) {
	e.Logger.Warningf("Skipping %s: %v", name, err)
	skippedEntries.Inc()
	if extractionErr, ok := err.(*common.ExtractionError); ok && e.OnSkip != nil {
		e.OnSkip(extractionErr)
	}
}
