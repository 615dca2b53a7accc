package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/aspectflow/internal/models"
)

var (
	valkeyInstance *ValkeyClient
	valkeyOnce     sync.Once
)

type ValkeyClient struct {
	Client    valkey.Client
	resultTTL time.Duration
	mu        sync.Mutex
}

const (
	VALKEY_PROCESSED_REVIEWS_KEY = "aspectflow:processed_reviews"
	VALKEY_RESULT_PREFIX         = "aspectflow:result:"
	DEFAULT_RESULT_TTL           = 24 * time.Hour
)

func valkeyOptionsFromEnv() valkey.ClientOption {
	opts := valkey.ClientOption{
		InitAddress:      []string{os.Getenv("VALKEY_INIT_ADDRESS")},
		Password:         os.Getenv("VALKEY_PASSWORD"),
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if os.Getenv("VALKEY_TLS") == "true" {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}
	return opts
}

func connectValkey() (valkey.Client, error) {
	client, err := valkey.NewClient(valkeyOptionsFromEnv())
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	return client, nil
}

// InitValkey connects once. resultTTL bounds how long cached review results
// live; zero selects the default.
func InitValkey(resultTTL time.Duration) (*ValkeyClient, error) {
	var initErr error
	valkeyOnce.Do(func() {
		client, err := connectValkey()
		if err != nil {
			initErr = err
			return
		}
		if resultTTL <= 0 {
			resultTTL = DEFAULT_RESULT_TTL
		}

		slog.Info("[ValkeyClient] Successfully connected to valkey",
			slog.Duration("result_ttl", resultTTL))
		valkeyInstance = &ValkeyClient{Client: client, resultTTL: resultTTL}
	})
	if initErr != nil {
		return nil, initErr
	}
	if valkeyInstance == nil {
		return nil, fmt.Errorf("[ValkeyClient] client is not initialized")
	}
	return valkeyInstance, nil
}

func (vc *ValkeyClient) recreateClient() {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	client, err := connectValkey()
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}
	vc.Client.Close()
	vc.Client = client
	slog.Info("[ValkeyClient] Successfully reconnected to valkey")
}

func CloseValkey() {
	if valkeyInstance != nil {
		valkeyInstance.Client.Close()
	}
}

// GetResult implements absa.ResultCache. Any failure is a miss.
func (vc *ValkeyClient) GetResult(ctx context.Context, key string) (models.ReviewResult, bool) {
	var result models.ReviewResult

	res := vc.DoWithRetry(ctx, vc.Client.B().Get().Key(VALKEY_RESULT_PREFIX+key).Build(), 2)
	data, err := res.AsBytes()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			slog.Warn("[ValkeyClient] Result lookup failed", slog.String("error", err.Error()))
		}
		return result, false
	}

	if err := json.Unmarshal(data, &result); err != nil {
		slog.Warn("[ValkeyClient] Cached result is corrupt", slog.String("error", err.Error()))
		return result, false
	}
	return result, true
}

// SetResult implements absa.ResultCache. Failures are logged and dropped.
func (vc *ValkeyClient) SetResult(ctx context.Context, key string, result models.ReviewResult) {
	data, err := json.Marshal(result)
	if err != nil {
		slog.Warn("[ValkeyClient] Failed to encode result", slog.String("error", err.Error()))
		return
	}

	cmd := vc.Client.B().Set().Key(VALKEY_RESULT_PREFIX + key).Value(string(data)).
		ExSeconds(int64(vc.resultTTL / time.Second)).Build()
	if err := vc.DoWithRetry(ctx, cmd, 2).Error(); err != nil {
		slog.Warn("[ValkeyClient] Failed to cache result", slog.String("error", err.Error()))
	}
}

// MarkProcessed records review IDs that have been analyzed so redelivered
// Kafka messages can be skipped.
func (vc *ValkeyClient) MarkProcessed(ctx context.Context, reviewIDs ...string) error {
	if len(reviewIDs) == 0 {
		return nil
	}
	completed := []valkey.Completed{
		vc.Client.B().Sadd().Key(VALKEY_PROCESSED_REVIEWS_KEY).Member(reviewIDs...).Build(),
		vc.Client.B().Expire().Key(VALKEY_PROCESSED_REVIEWS_KEY).Seconds(86400).Build(),
	}

	responses := vc.DoMultiWithRetry(ctx, completed, 3)
	for _, res := range responses {
		if err := res.Error(); err != nil {
			return err
		}
	}

	slog.Debug("[ValkeyClient] Marked reviews processed", slog.Int("count", len(reviewIDs)))
	return nil
}

func (vc *ValkeyClient) IsProcessed(ctx context.Context, reviewID string) bool {
	res := vc.DoWithRetry(ctx, vc.Client.B().Sismember().Key(VALKEY_PROCESSED_REVIEWS_KEY).Member(reviewID).Build(), 3)

	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

func (vc *ValkeyClient) DoMultiWithRetry(ctx context.Context, completed []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	for i := 0; i < retries; i++ {
		results = vc.Client.DoMulti(ctx, completed...)
		hasErr := false
		for _, r := range results {
			if r.Error() != nil {
				hasErr = true
				slog.Warn("[ValkeyClient] Do Multi failed",
					slog.Int("attempt", i+1),
					slog.String("error", r.Error().Error()))
				if isConnectionError(r.Error()) {
					vc.recreateClient()
				}
				break
			}
		}
		if !hasErr {
			break
		}
		time.Sleep(time.Millisecond * 250)
	}

	return results
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, completed valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.Client.Do(ctx, completed)
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		if isConnectionError(err) {
			vc.recreateClient()
		}

		time.Sleep(250 * time.Millisecond)
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
