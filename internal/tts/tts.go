// Package tts turns composed responses into audio through an external
// speech-synthesis service. The assistant treats audio as opaque bytes and
// keeps working when synthesis is down.
package tts

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/database"
	"lua-assistant/internal/common/logger"
)

var (
	ErrSynthesisTimeout = errors.New("TTS_TIMEOUT")
	ErrSynthesisFailed  = errors.New("TTS_SYNTHESIS_FAILED")
)

// Synthesizer converts text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Noop is used when voice output is disabled.
type Noop struct{}

func (Noop) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return nil, nil
}

// Client calls the speech service over HTTP, with retries and an optional
// Redis cache keyed by the synthesized content.
type Client struct {
	cfg   config.TTSConfig
	http  *http.Client
	cache *database.RedisClient
	log   logger.Logger
	ttl   time.Duration
}

// NewClient builds a synthesis client. cache may be nil, which disables
// caching regardless of configuration.
func NewClient(cfg config.TTSConfig, cache *database.RedisClient, log logger.Logger) *Client {
	if !cfg.CacheEnabled {
		cache = nil
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{},
		cache: cache,
		log:   log.WithFields(map[string]interface{}{"component": "tts"}),
		ttl:   time.Duration(cfg.CacheTTL) * time.Second,
	}
}

// Synthesize returns audio for the text. Cache hits skip the speech service
// entirely.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := c.cacheKey(text)

	if c.cache != nil {
		audio, err := c.cache.Client.Get(ctx, key).Bytes()
		if err == nil {
			c.log.Debug("synthesis cache hit", map[string]interface{}{"key": key})
			return audio, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).Warn("synthesis cache read failed", nil)
		}
	}

	audio, err := c.request(ctx, text)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Client.Set(ctx, key, audio, c.ttl).Err(); err != nil {
			c.log.WithError(err).Warn("synthesis cache write failed", nil)
		}
	}
	return audio, nil
}

func (c *Client) request(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"text":  text,
		"voice": c.cfg.Voice,
		"speed": c.cfg.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	timeout := config.GetDuration(c.cfg.Timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrSynthesisTimeout
			}
		}

		audio, err := c.attempt(ctx, payload)
		if err == nil {
			return audio, nil
		}
		if ctx.Err() != nil {
			return nil, ErrSynthesisTimeout
		}
		lastErr = err
		c.log.WithError(err).Warn("synthesis attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
		})
	}
	return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, lastErr)
}

func (c *Client) attempt(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/tts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// cacheKey hashes text, voice and speed so a voice change never serves
// stale audio.
func (c *Client) cacheKey(text string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%g", text, c.cfg.Voice, c.cfg.Speed)))
	return "tts:" + hex.EncodeToString(sum[:])
}
