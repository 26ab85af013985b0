package store

import (
	"context"
	"fmt"
	"sync"

	"hostwatch/pkg/wferrors"
)

// lazyStore opens its backend on first use and again after every failed
// open, so a backend that was down at startup is picked up once it is back.
type lazyStore struct {
	mu    sync.Mutex
	name  string
	open  func() (Store, error)
	inner Store
}

var _ StateWriter = (*lazyStore)(nil)

func newLazyStore(name string, open func() (Store, error)) *lazyStore {
	return &lazyStore{name: name, open: open}
}

func (s *lazyStore) get() (Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inner != nil {
		return s.inner, nil
	}
	inner, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", wferrors.ErrStoreUnavailable, s.name, err)
	}
	s.inner = inner
	return inner, nil
}

func (s *lazyStore) ReadTransferTotal(ctx context.Context) (float64, bool, error) {
	st, err := s.get()
	if err != nil {
		return 0, false, err
	}
	return st.ReadTransferTotal(ctx)
}

func (s *lazyStore) WriteTransferTotal(ctx context.Context, total float64) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	return st.WriteTransferTotal(ctx, total)
}

func (s *lazyStore) ReadMonthKey(ctx context.Context) (string, bool, error) {
	st, err := s.get()
	if err != nil {
		return "", false, err
	}
	return st.ReadMonthKey(ctx)
}

func (s *lazyStore) WriteMonthKey(ctx context.Context, month string) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	return st.WriteMonthKey(ctx, month)
}

// WriteState is atomic only when the opened backend is.
func (s *lazyStore) WriteState(ctx context.Context, total float64, month string) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	if sw, ok := st.(StateWriter); ok {
		return sw.WriteState(ctx, total, month)
	}
	if err := st.WriteTransferTotal(ctx, total); err != nil {
		return err
	}
	return st.WriteMonthKey(ctx, month)
}

func (s *lazyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inner == nil {
		return nil
	}
	return s.inner.Close()
}
