// Copyright 2025 The Hostwatch Authors, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"fmt"

	"hostwatch/pkg/redis"
)

const defaultKeyPrefix = "hostwatch:"

// KV is the subset of pkg/redis.Client the redis backend uses.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}) error
	MSet(ctx context.Context, pairs ...interface{}) error
	Close() error
}

type RedisStore struct {
	kv       KV
	totalKey string
	monthKey string
}

var (
	_ StateWriter = (*RedisStore)(nil)
	_ KV          = (*redis.Client)(nil)
)

func NewRedisStore(kv KV, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{
		kv:       kv,
		totalKey: prefix + "transfer_total",
		monthKey: prefix + "month_key",
	}
}

func (s *RedisStore) ReadTransferTotal(ctx context.Context) (float64, bool, error) {
	raw, ok, err := s.get(ctx, s.totalKey)
	if !ok || err != nil {
		return 0, ok, err
	}
	v, err := parseTotal(raw)
	return v, err == nil, err
}

func (s *RedisStore) WriteTransferTotal(ctx context.Context, total float64) error {
	if err := s.kv.Set(ctx, s.totalKey, formatTotal(total)); err != nil {
		return fmt.Errorf("store: redis set %s: %w", s.totalKey, err)
	}
	return nil
}

func (s *RedisStore) ReadMonthKey(ctx context.Context) (string, bool, error) {
	raw, ok, err := s.get(ctx, s.monthKey)
	if !ok || err != nil {
		return "", ok, err
	}
	month, err := parseMonth(raw)
	return month, err == nil, err
}

func (s *RedisStore) WriteMonthKey(ctx context.Context, month string) error {
	if err := s.kv.Set(ctx, s.monthKey, month); err != nil {
		return fmt.Errorf("store: redis set %s: %w", s.monthKey, err)
	}
	return nil
}

// WriteState replaces both keys with one MSET.
func (s *RedisStore) WriteState(ctx context.Context, total float64, month string) error {
	if err := s.kv.MSet(ctx, s.totalKey, formatTotal(total), s.monthKey, month); err != nil {
		return fmt.Errorf("store: redis mset: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.kv.Close()
}

func (s *RedisStore) get(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if redis.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: redis get %s: %w", key, err)
	}
	return raw, true, nil
}
