package app

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Naude555/watson/internal/gateway/domain"
)

// ForwardEvent is the webhook payload for one forwarded inbound message.
type ForwardEvent struct {
	Event     string             `json:"event"`
	EventID   string             `json:"eventId"`
	Ts        int64              `json:"ts"`
	ChatJID   string             `json:"chatJid"`
	IsGroup   bool               `json:"isGroup"`
	SenderJID string             `json:"senderJid"`
	Type      domain.MessageType `json:"type"`
	Text      string             `json:"text"`
	RawText   *string            `json:"rawText"`
	Media     *ForwardMedia      `json:"media"`
	Rule      ForwardRuleInfo    `json:"rule"`
}

// ForwardMedia is the media subset exposed to the webhook consumer.
type ForwardMedia struct {
	FileName  string `json:"fileName,omitempty"`
	Mimetype  string `json:"mimetype,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
	SignedURL string `json:"signedUrl,omitempty"`
}

// ForwardRuleInfo is the safe rule subset included with each event.
type ForwardRuleInfo struct {
	GroupMode   string   `json:"groupMode"`
	GroupPrefix string   `json:"groupPrefix"`
	Templates   []string `json:"templates"`
}

type forwardJob struct {
	event    ForwardEvent
	attempts int
}

// Forwarder delivers rule-engine-approved events to the automation
// webhook. Events queue in memory; a single drain goroutine posts them
// in order and requeues failures with a quadratic backoff, giving up
// after five attempts.
type Forwarder struct {
	automations *AutomationService
	signer      *MediaSigner
	client      *http.Client
	logger      *slog.Logger

	mu      sync.Mutex
	queue   []*forwardJob
	running bool

	maxAttempts int
	afterFunc   func(d time.Duration, f func()) *time.Timer
}

func NewForwarder(automations *AutomationService, signer *MediaSigner, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		automations: automations,
		signer:      signer,
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      logger.With("service", "Forwarder"),
		maxAttempts: 5,
		afterFunc:   time.AfterFunc,
	}
}

// BuildEvent assembles the webhook payload for an inbound record.
func (f *Forwarder) BuildEvent(rec domain.MessageRecord, rawText string) ForwardEvent {
	rule := f.automations.EffectiveRule(rec.ChatJID)
	evt := ForwardEvent{
		Event:     "inbound_message",
		EventID:   rec.ID,
		Ts:        rec.Ts,
		ChatJID:   rec.ChatJID,
		IsGroup:   rec.IsGroup,
		SenderJID: rec.SenderJID,
		Type:      rec.Type,
		Text:      rec.Text,
		Rule: ForwardRuleInfo{
			GroupMode:   rule.GroupMode,
			GroupPrefix: rule.GroupPrefix,
			Templates:   rule.Templates,
		},
	}
	if evt.Rule.Templates == nil {
		evt.Rule.Templates = []string{}
	}
	if rawText != "" {
		evt.RawText = &rawText
	}
	if rec.Media != nil {
		m := &ForwardMedia{
			FileName:  rec.Media.FileName,
			Mimetype:  rec.Media.Mimetype,
			LocalPath: rec.Media.LocalPath,
		}
		if rec.Media.FileName != "" && f.signer != nil {
			m.SignedURL = f.signer.SignedPath(rec.Media.FileName)
		}
		evt.Media = m
	}
	return evt
}

// Enqueue queues an event and kicks the drain loop if it is idle.
func (f *Forwarder) Enqueue(evt ForwardEvent) {
	f.enqueue(&forwardJob{event: evt})
}

func (f *Forwarder) enqueue(job *forwardJob) {
	f.mu.Lock()
	f.queue = append(f.queue, job)
	start := !f.running
	if start {
		f.running = true
	}
	f.mu.Unlock()
	if start {
		go f.drain()
	}
}

func (f *Forwarder) drain() {
	for {
		f.mu.Lock()
		if len(f.queue) == 0 {
			f.running = false
			f.mu.Unlock()
			return
		}
		job := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()

		if err := f.post(context.Background(), job.event); err != nil {
			job.attempts++
			if job.attempts >= f.maxAttempts {
				forwardEventsCounter.WithLabelValues("dropped").Inc()
				f.logger.Error("webhook delivery failed permanently", "event_id", job.event.EventID, "attempts", job.attempts, "error", err)
				continue
			}
			forwardEventsCounter.WithLabelValues("retry").Inc()
			backoff := time.Duration(job.attempts*job.attempts) * time.Second
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
			f.logger.Warn("webhook delivery failed, scheduling retry", "event_id", job.event.EventID, "attempts", job.attempts, "backoff", backoff, "error", err)
			f.afterFunc(backoff, func() { f.enqueue(job) })
			continue
		}
		forwardEventsCounter.WithLabelValues("delivered").Inc()
	}
}

func (f *Forwarder) post(ctx context.Context, evt ForwardEvent) error {
	cfg := f.automations.Config()
	url := strings.TrimSpace(cfg.WebhookURL)
	if url == "" {
		return nil
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret := strings.TrimSpace(cfg.SharedSecret); secret != "" {
		req.Header.Set("X-Watson-Secret", secret)
		req.Header.Set("X-Watson-Signature", signBody(secret, body))
	}

	res, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("webhook returned HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
