package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/trahn-ladder/internal/httputil"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

type CoinGeckoClient struct {
	baseURL    string
	coinID     string
	vsCurrency string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewCoinGeckoClient(baseURL, coinID, vsCurrency string, log logrus.FieldLogger) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		coinID:     strings.ToLower(coinID),
		vsCurrency: strings.ToLower(vsCurrency),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
			Log:         log,
		},
	}
}

func (c *CoinGeckoClient) Price(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("ids", c.coinID)
	q.Set("vs_currencies", c.vsCurrency)
	endpoint := c.baseURL + "/simple/price?" + q.Encode()

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return 0, errors.Wrap(err, "coingecko fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	// {"ethereum":{"usd":2650.42}}
	var data map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, errors.Wrap(err, "decode")
	}

	price, ok := data[c.coinID][c.vsCurrency]
	if !ok {
		return 0, errors.Errorf("no %s/%s quote in response", c.coinID, c.vsCurrency)
	}
	if price <= 0 {
		return 0, errors.Errorf("invalid price: %f", price)
	}
	return price, nil
}
