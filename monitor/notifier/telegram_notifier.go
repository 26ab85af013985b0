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

package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultTelegramAPIURL = "https://api.telegram.org"

	telegramAttempts = 3

	// telegramSendTimeout caps one Send across all attempts.
	telegramSendTimeout = 3 * time.Second
)

// TelegramNotifier posts messages through the Telegram Bot API.
type TelegramNotifier struct {
	apiURL string
	token  string
	chatID string
	client *http.Client

	// newBackOff paces retries between attempts.
	newBackOff  func() backoff.BackOff
	sendTimeout time.Duration
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewTelegramNotifier(apiURL, token, chatID string) *TelegramNotifier {
	if apiURL == "" {
		apiURL = DefaultTelegramAPIURL
	}
	return &TelegramNotifier{
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 5 * time.Second},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = time.Second
			b.MaxElapsedTime = 2 * time.Second
			return b
		},
		sendTimeout: telegramSendTimeout,
	}
}

func (n *TelegramNotifier) Name() string {
	return KindTelegram
}

// Send returns within sendTimeout even when the API never answers.
func (n *TelegramNotifier) Send(ctx context.Context, message string) error {
	ctx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	b := backoff.WithContext(backoff.WithMaxRetries(n.newBackOff(), telegramAttempts-1), ctx)
	err := backoff.Retry(func() error {
		return n.send(ctx, message)
	}, b)
	if err != nil && !IsTransport(err) {
		// backoff hands back the bare context error once the deadline passes
		err = &TransportError{Notifier: n.Name(), Err: err}
	}
	return err
}

func (n *TelegramNotifier) send(ctx context.Context, message string) error {
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", message)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return backoff.Permanent(&TransportError{Notifier: n.Name(), Err: err})
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		// the token is part of the URL; keep it out of logs
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return &TransportError{Notifier: n.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var result telegramResponse
	_ = json.Unmarshal(body, &result)

	if resp.StatusCode == http.StatusOK && result.OK {
		return nil
	}

	terr := &TransportError{
		Notifier:   n.Name(),
		StatusCode: resp.StatusCode,
		Err:        errors.New(describe(result, resp.Status)),
	}
	if retryable(resp.StatusCode) {
		return terr
	}
	return backoff.Permanent(terr)
}

func describe(r telegramResponse, status string) string {
	if r.Description != "" {
		return r.Description
	}
	return status
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
