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

// Package store persists the two scalars the transfer accumulator needs to
// survive a restart: the running byte total and the month it belongs to.
package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hostwatch/pkg/log"
	"hostwatch/pkg/redis"
	"hostwatch/pkg/wferrors"
)

// MonthLayout is the canonical "YYYY-MM" month key layout.
const MonthLayout = "2006-01"

// Store is a durable pair of scalar slots. Reads return ok=false for a slot
// that was never written. A value that cannot be parsed is an error, never a
// partial result.
type Store interface {
	ReadTransferTotal(ctx context.Context) (total float64, ok bool, err error)
	WriteTransferTotal(ctx context.Context, total float64) error
	ReadMonthKey(ctx context.Context) (month string, ok bool, err error)
	WriteMonthKey(ctx context.Context, month string) error
	Close() error
}

// StateWriter is implemented by backends that can replace both slots in a
// single atomic write.
type StateWriter interface {
	WriteState(ctx context.Context, total float64, month string) error
}

const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

type Options struct {
	Driver string

	// file
	Dir string

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	// sqlite
	SQLitePath string
}

// Open builds the backend selected by opts.Driver. Only an unknown driver is
// an error: a backend that cannot be reached yet is logged and returned in a
// state where reads and writes fail until it comes back, so the accumulator
// starts cold instead of the process exiting.
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := log.GetLogger("store")

	switch opts.Driver {
	case "", DriverFile:
		s, err := NewFileStore(opts.Dir)
		if err != nil {
			logger.Errorf("%v; starting cold, will retry on next write", err)
			return newLazyStore(DriverFile, func() (Store, error) { return NewFileStore(opts.Dir) }), nil
		}
		return s, nil
	case DriverRedis:
		client, err := redis.NewClient(ctx, &redis.ClientConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err != nil {
			// go-redis reconnects on its own, keep the client
			logger.Errorf("connect redis %s: %v; starting cold until it is reachable", opts.RedisAddr, err)
		}
		return NewRedisStore(client, opts.KeyPrefix), nil
	case DriverSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.Dir, "hostwatch.db")
		}
		s, err := NewSQLStore(path)
		if err != nil {
			logger.Errorf("%v; starting cold, will retry on next write", err)
			return newLazyStore(DriverSQLite, func() (Store, error) { return NewSQLStore(path) }), nil
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", wferrors.ErrUnknownStoreDriver, opts.Driver)
	}
}

func formatTotal(total float64) string {
	return strconv.FormatFloat(total, 'f', -1, 64)
}

func parseTotal(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("store: parse transfer total %q: %w", raw, err)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("store: transfer total out of range: %q", raw)
	}
	return v, nil
}

func parseMonth(raw string) (string, error) {
	month := strings.TrimSpace(raw)
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return "", fmt.Errorf("store: parse month key %q: %w", raw, err)
	}
	return month, nil
}
