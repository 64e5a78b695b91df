package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/auth"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
)

// DropboxFolderLister is the one Dropbox call the crawler needs.
// files.Client satisfies it.
type DropboxFolderLister interface {
	ListFolder(arg *files.ListFolderArg) (*files.ListFolderResult, error)
}

// DropboxProvider lists a folder in a Dropbox account using a
// long-lived API token. The OAuth handshake that produces the token
// happens outside this service.
type DropboxProvider struct {
	Token string

	// NewClient builds the folder lister for a session. It defaults
	// to the real Dropbox files client.
	NewClient func(config dropbox.Config) DropboxFolderLister
}

func NewDropboxProvider(token string) *DropboxProvider {
	return &DropboxProvider{
		Token: token,
		NewClient: func(config dropbox.Config) DropboxFolderLister {
			return files.New(config)
		},
	}
}

func (p *DropboxProvider) Name() string {
	return constants.ListingProviderDropbox
}

func (p *DropboxProvider) Connect(ctx context.Context) (StorageSession, error) {
	if p.Token == "" {
		return nil, common.NewListingError(p.Name(), "", common.ListingErrorAuth,
			errors.New("no Dropbox API token configured"))
	}
	if err := ctx.Err(); err != nil {
		return nil, common.NewListingError(p.Name(), "", common.ListingErrorNetwork, err)
	}
	return &dropboxSession{
		client: p.NewClient(dropbox.Config{Token: p.Token}),
	}, nil
}

type dropboxSession struct {
	client    DropboxFolderLister
	truncated bool
}

// List returns the names of the files in dir. Subfolders are left out.
// Only the first page of results is read; Truncated reports whether
// Dropbox had more.
func (s *dropboxSession) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.NewListingError(constants.ListingProviderDropbox, dir, common.ListingErrorNetwork, err)
	}
	result, err := s.client.ListFolder(files.NewListFolderArg(dropboxPath(dir)))
	if err != nil {
		return nil, common.NewListingError(constants.ListingProviderDropbox, dir, ClassifyDropboxError(err), err)
	}
	if result == nil {
		return nil, common.NewListingError(constants.ListingProviderDropbox, dir, common.ListingErrorUnknown,
			fmt.Errorf("empty response listing %s", dir))
	}
	s.truncated = result.HasMore
	names := make([]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if file, ok := entry.(*files.FileMetadata); ok {
			names = append(names, file.Name)
		}
	}
	return names, nil
}

func (s *dropboxSession) Truncated() bool {
	return s.truncated
}

func (s *dropboxSession) Close() error {
	s.client = nil
	return nil
}

// dropboxPath normalizes dir the way the Dropbox API wants it: empty
// for the root, otherwise a leading slash and no trailing slash.
func dropboxPath(dir string) string {
	trimmed := strings.Trim(dir, "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

// ClassifyDropboxError maps a Dropbox API error onto a listing error
// kind. The SDK's typed errors are checked first. Anything else falls
// back to the error summary, which Dropbox writes as tags such as
// "path/not_found/" or "expired_access_token/".
func ClassifyDropboxError(err error) common.ListingErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return common.ListingErrorNetwork
	}
	if kind, ok := classifyTypedDropboxError(err); ok {
		return kind
	}
	summary := strings.ToLower(err.Error())
	switch {
	case containsAny(summary, "invalid_access_token", "expired_access_token", "missing_scope",
		"invalid_select_user", "user_suspended", "unauthorized"):
		return common.ListingErrorAuth
	case containsAny(summary, "not_found", "not_folder"):
		return common.ListingErrorNotFound
	case containsAny(summary, "insufficient_space", "over_quota", "insufficient_quota"):
		return common.ListingErrorQuota
	case containsAny(summary, "too_many_requests", "too_many_write_operations", "rate_limit"):
		return common.ListingErrorRateLimit
	case containsAny(summary, "connection refused", "no such host", "i/o timeout", "connection reset"):
		return common.ListingErrorNetwork
	}
	return common.ListingErrorUnknown
}

func classifyTypedDropboxError(err error) (common.ListingErrorKind, bool) {
	var authErr auth.AuthAPIError
	if errors.As(err, &authErr) {
		return common.ListingErrorAuth, true
	}
	var accessErr auth.AccessAPIError
	if errors.As(err, &accessErr) {
		return common.ListingErrorAuth, true
	}
	var rateErr auth.RateLimitAPIError
	if errors.As(err, &rateErr) {
		return common.ListingErrorRateLimit, true
	}
	var listErr files.ListFolderAPIError
	if errors.As(err, &listErr) && listErr.EndpointError != nil {
		lookup := listErr.EndpointError.Path
		if listErr.EndpointError.Tag == files.ListFolderErrorPath && lookup != nil {
			switch lookup.Tag {
			case files.LookupErrorNotFound, files.LookupErrorNotFolder:
				return common.ListingErrorNotFound, true
			}
		}
	}
	return common.ListingErrorUnknown, false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
