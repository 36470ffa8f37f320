// Package offline implements a cache-first request interceptor backed by a
// versioned response store, so a deck stays readable without connectivity.
package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Store is a set of named caches, each mapping a request key to a response
// snapshot. Implementations must be safe for concurrent use.
type Store interface {
	// Open creates the named cache if it does not exist.
	Open(ctx context.Context, name string) error
	// Keys returns the names of every existing cache.
	Keys(ctx context.Context) ([]string, error)
	// Delete removes the named cache and its entries. It reports whether a
	// cache was removed.
	Delete(ctx context.Context, name string) (bool, error)
	// Match returns the snapshot stored under key in the named cache, or an
	// error wrapping apperr.ErrNotFound on a miss.
	Match(ctx context.Context, name, key string) (*Snapshot, error)
	// Put stores snap under key, creating the named cache when needed.
	Put(ctx context.Context, name, key string, snap *Snapshot) error
	// PutAll stores every snapshot under its URL atomically, creating the
	// named cache when needed.
	PutAll(ctx context.Context, name string, snaps []*Snapshot) error
}

// Snapshot is a fully buffered HTTP response.
type Snapshot struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Response rebuilds an *http.Response for req from the snapshot. Every call
// returns an independent body reader.
func (s *Snapshot) Response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", s.Status, http.StatusText(s.Status)),
		StatusCode:    s.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        s.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(s.Body)),
		ContentLength: int64(len(s.Body)),
		Request:       req,
	}
}

// snapshot drains and closes resp.Body, replacing it with a re-readable copy.
func snapshot(resp *http.Response) (*Snapshot, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	url := ""
	if resp.Request != nil {
		url = resp.Request.URL.String()
	}
	return &Snapshot{
		URL:      url,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now().UTC(),
	}, nil
}
