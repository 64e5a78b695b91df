package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

const ImportBucket = "istock-import"
const S3Region = "us-east-1"
const S3KeyID = "test-key"
const S3Secret = "test-secret"

// S3Server is an in-memory S3 service for tests. It starts with an
// empty ImportBucket.
type S3Server struct {
	server *httptest.Server
	URL    string
}

func NewS3Server() *S3Server {
	backend := s3mem.New()
	backend.CreateBucket(ImportBucket)
	faker := gofakes3.New(backend)
	server := httptest.NewServer(faker.Server())
	return &S3Server{
		server: server,
		URL:    server.URL,
	}
}

// Host returns the server's host:port, which is what minio.New wants.
func (s *S3Server) Host() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// PutObjects stores a small object under each key in bucket. The fake
// server does not check signatures, so plain PUTs are enough.
func (s *S3Server) PutObjects(bucket string, keys ...string) error {
	for _, key := range keys {
		data := []byte("image bytes for " + key)
		url := fmt.Sprintf("%s/%s/%s", s.URL, bucket, key)
		req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.ContentLength = int64(len(data))
		req.Header.Set("Content-Type", "image/jpeg")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("PUT %s returned status %d", url, resp.StatusCode)
		}
	}
	return nil
}

func (s *S3Server) Close() {
	s.server.Close()
}
