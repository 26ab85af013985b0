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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	totalFile = "transfer_usage.txt"
	monthFile = "last_month.txt"
)

// FileStore keeps each slot in its own text file. Every write goes to a temp
// file in the same directory which is then renamed over the slot, so a reader
// sees either the old or the new value.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) ReadTransferTotal(_ context.Context) (float64, bool, error) {
	raw, ok, err := s.read(totalFile)
	if !ok || err != nil {
		return 0, ok, err
	}
	v, err := parseTotal(raw)
	return v, err == nil, err
}

func (s *FileStore) WriteTransferTotal(_ context.Context, total float64) error {
	return s.write(totalFile, formatTotal(total))
}

func (s *FileStore) ReadMonthKey(_ context.Context) (string, bool, error) {
	raw, ok, err := s.read(monthFile)
	if !ok || err != nil {
		return "", ok, err
	}
	month, err := parseMonth(raw)
	return month, err == nil, err
}

func (s *FileStore) WriteMonthKey(_ context.Context, month string) error {
	return s.write(monthFile, month)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read(name string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: read %s: %w", name, err)
	}
	return string(data), true, nil
}

func (s *FileStore) write(name, value string) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("store: create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: write temp for %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: sync temp for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp for %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("store: rename temp for %s: %w", name, err)
	}

	success = true
	return nil
}
