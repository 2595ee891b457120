package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	retry "github.com/avast/retry-go"
)

// RateProvider supplies the USD price of one unit of a crypto asset.
type RateProvider interface {
	RateUSD(cryptoType string) (float64, error)
}

// Rates is the process-wide exchange-rate collaborator. Tests swap in a fake.
var Rates RateProvider = &HTTPRateFeed{}

// HTTPRateFeed pulls rates from an external feed and caches them briefly.
// Slightly stale rates are acceptable: the payment matcher's tolerance band
// absorbs the drift.
type HTTPRateFeed struct {
	BaseURL string
	Client  *http.Client
	TTL     time.Duration

	mu    sync.Mutex
	cache map[string]cachedRate
}

type cachedRate struct {
	rate      float64
	fetchedAt time.Time
}

// InitRateFeed configures the default exchange-rate collaborator.
func InitRateFeed(baseURL string) {
	Rates = &HTTPRateFeed{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		TTL:     time.Minute,
	}
}

// RateUSD returns the cached rate when fresh, otherwise refetches. If the feed
// is down and a cached value exists, the stale value is served rather than
// failing the checkout.
func (f *HTTPRateFeed) RateUSD(cryptoType string) (float64, error) {
	ttl := f.TTL
	if ttl == 0 {
		ttl = time.Minute
	}

	f.mu.Lock()
	if f.cache == nil {
		f.cache = make(map[string]cachedRate)
	}
	cached, ok := f.cache[cryptoType]
	f.mu.Unlock()

	if ok && time.Since(cached.fetchedAt) < ttl {
		return cached.rate, nil
	}

	rate, err := f.fetch(cryptoType)
	if err != nil {
		if ok {
			LogError("Rate feed unavailable for %s, serving stale rate: %v", cryptoType, err)
			return cached.rate, nil
		}
		return 0, WrapError(ErrRateFeedFailed, err.Error())
	}

	f.mu.Lock()
	f.cache[cryptoType] = cachedRate{rate: rate, fetchedAt: time.Now()}
	f.mu.Unlock()

	return rate, nil
}

func (f *HTTPRateFeed) fetch(cryptoType string) (float64, error) {
	if f.BaseURL == "" {
		return 0, fmt.Errorf("rate feed URL not configured")
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	var payload struct {
		RateUSD float64 `json:"rate_usd"`
	}
	err := retry.Do(
		func() error {
			resp, err := client.Get(fmt.Sprintf("%s/rates/%s", f.BaseURL, cryptoType))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("rate feed returned status %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&payload)
		},
		retry.Attempts(3),
		retry.Delay(250*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return 0, err
	}
	if payload.RateUSD <= 0 {
		return 0, fmt.Errorf("rate feed returned non-positive rate %f", payload.RateUSD)
	}
	return payload.RateUSD, nil
}
