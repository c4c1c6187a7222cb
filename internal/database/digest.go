package database

import (
	"context"
	"encoding/hex"
	"net/url"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/sitemaps/internal/fetcher"
	"github.com/nao1215/sitemaps/internal/model"
)

// Digest returns the hex SHA3-256 digest of a document.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestRecorder is a fetcher.Fetcher decorator that remembers the digest of
// every document fetched successfully, for SaveRun.
type DigestRecorder struct {
	next fetcher.Fetcher

	mu      sync.Mutex
	digests map[string]string
}

// NewDigestRecorder wraps next.
func NewDigestRecorder(next fetcher.Fetcher) *DigestRecorder {
	return &DigestRecorder{next: next, digests: make(map[string]string)}
}

// Fetch implements fetcher.Fetcher.
func (r *DigestRecorder) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	data, err := r.next.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.digests[model.Key(u)] = Digest(data)
	r.mu.Unlock()
	return data, nil
}

// Digests returns the recorded digests of the given sitemap documents, keyed
// by location. Anything else fetched through the recorder, such as
// robots.txt, is left out.
func (r *DigestRecorder) Digests(documents []*url.URL) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(documents))
	for _, u := range documents {
		key := model.Key(u)
		if digest, ok := r.digests[key]; ok {
			out[key] = digest
		}
	}
	return out
}
