package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// MediaSigner issues and verifies the signed links under /media. A link
// is the file name plus an expiry, authenticated with HMAC-SHA256 over
// "name|exp".
type MediaSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewMediaSigner(secret string, ttl time.Duration) *MediaSigner {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &MediaSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MediaSigner) hmacHex(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignedPath returns the relative signed URL for a stored media file.
func (s *MediaSigner) SignedPath(fileName string) string {
	exp := s.now().Add(s.ttl).Unix()
	sig := s.hmacHex(fmt.Sprintf("%s|%d", fileName, exp))
	return fmt.Sprintf("/media/%s?exp=%d&sig=%s", url.PathEscape(fileName), exp, sig)
}

// Verify checks a presented name/exp/sig triple. It fails closed: no
// signing secret means no valid links.
func (s *MediaSigner) Verify(fileName, expStr, sig string) error {
	if len(s.secret) == 0 {
		return fmt.Errorf("media signing secret is not configured")
	}
	if fileName == "" || expStr == "" || sig == "" {
		return fmt.Errorf("missing signature parameters")
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiry: %w", err)
	}
	if exp < s.now().Unix() {
		return fmt.Errorf("link expired")
	}
	expected := s.hmacHex(fmt.Sprintf("%s|%d", fileName, exp))
	a, err := hex.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("invalid signature encoding")
	}
	b, _ := hex.DecodeString(expected)
	if !hmac.Equal(a, b) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// MediaCleaner deletes uploaded files older than the TTL on a fixed
// interval.
type MediaCleaner struct {
	dir      string
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
}

func NewMediaCleaner(dir string, ttl, interval time.Duration, logger *slog.Logger) *MediaCleaner {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &MediaCleaner{
		dir:      dir,
		ttl:      ttl,
		interval: interval,
		logger:   logger.With("service", "MediaCleaner"),
	}
}

// Run sweeps immediately, then on every tick until the context ends.
func (c *MediaCleaner) Run(ctx context.Context) error {
	c.sweep(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *MediaCleaner) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-c.ttl)
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WarnContext(ctx, "media cleanup failed", "error", err)
		}
		return
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		c.logger.InfoContext(ctx, "media cleanup removed old files", "count", removed)
	}
}
