package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/trahn-ladder/internal/httputil"
)

const DefaultBotName = "TrahnLadder"

// Sender posts ladder alerts to a Slack or Discord webhook. Every message is
// logged, whether or not a webhook is configured.
type Sender struct {
	webhookURL string
	botName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	log        logrus.FieldLogger
}

func NewSender(webhookURL, botName string, log logrus.FieldLogger) *Sender {
	if botName == "" {
		botName = DefaultBotName
	}
	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			Log:         log,
		},
		log: log,
	}
}

func (s *Sender) Send(ctx context.Context, msg string) error {
	formatted := fmt.Sprintf("[%s] %s", s.botName, msg)
	s.log.WithField("webhook", s.Enabled()).Info(formatted)

	if s.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.log.WithError(err).Error("notification not delivered")
		return errors.Wrap(err, "send notification")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.botName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.botName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
