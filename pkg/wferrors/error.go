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

package wferrors

import "errors"

var (
	ErrNotifierCredentials = errors.New("notifier credentials are required")
	ErrUnknownNotifier     = errors.New("unknown notifier")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrUnknownStoreDriver  = errors.New("unknown store driver")
	ErrTransport           = errors.New("notification transport failed")
	ErrNotifierUnavailable = errors.New("notifier is not available")
	ErrStoreUnavailable    = errors.New("store is not available")
)
