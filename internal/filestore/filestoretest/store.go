// Package filestoretest provides an in-memory filestore.Store for tests.
package filestoretest

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/filestore"
)

// Store keeps objects in memory, keyed by bucket and key.
type Store struct {
	mu      sync.Mutex
	Buckets map[string]bool
	Objects map[string]map[string]filestore.ObjectInfo
	Data    map[string]map[string][]byte

	PutErr error
	Closed bool
}

var _ filestore.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		Buckets: map[string]bool{},
		Objects: map[string]map[string]filestore.ObjectInfo{},
		Data:    map[string]map[string][]byte{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error {
	s.Closed = true
	return nil
}

func (s *Store) EnsureBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Buckets[bucket] {
		s.Buckets[bucket] = true
		s.Objects[bucket] = map[string]filestore.ObjectInfo{}
		s.Data[bucket] = map[string][]byte{}
	}
	return nil
}

func (s *Store) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*filestore.ObjectInfo, error) {
	if s.PutErr != nil {
		return nil, s.PutErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Buckets[bucket] {
		return nil, errs.Errorf(errs.ErrKindNotFound, "bucket %s does not exist", bucket)
	}
	info := filestore.ObjectInfo{
		Key:          key,
		Size:         size,
		ContentType:  contentType,
		LastModified: time.Now(),
	}
	s.Objects[bucket][key] = info
	s.Data[bucket][key] = body
	return &info, nil
}

// Body returns the stored bytes of key, or nil.
func (s *Store) Body(bucket, key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Data[bucket][key]
}

func (s *Store) ListObjects(_ context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Buckets[bucket] {
		return nil, errs.Errorf(errs.ErrKindNotFound, "bucket %s does not exist", bucket)
	}

	keys := make([]string, 0, len(s.Objects[bucket]))
	for k := range s.Objects[bucket] {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]filestore.ObjectInfo, 0, len(keys))
	for _, k := range keys {
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
		out = append(out, s.Objects[bucket][k])
	}
	return out, nil
}

func (s *Store) GetObject(_ context.Context, bucket, key string) (filestore.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.Objects[bucket][key]
	if !ok {
		return nil, errs.Errorf(errs.ErrKindNotFound, "object %s/%s not found", bucket, key)
	}
	return &object{Reader: bytes.NewReader(s.Data[bucket][key]), info: info}, nil
}

func (s *Store) PresignGetURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return "https://store.test/" + bucket + "/" + key + "?ttl=" + ttl.String(), nil
}

type object struct {
	*bytes.Reader
	info filestore.ObjectInfo
}

func (o *object) Close() error { return nil }

func (o *object) Info() *filestore.ObjectInfo { return &o.info }
