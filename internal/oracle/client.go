package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"liqwatch/internal/config"
	"liqwatch/pkg/retry"
	"liqwatch/pkg/utils"
)

// client.go - HTTP клиент оракула цен
//
// Один запрос = одна цена одного токена. Клиент отвечает за retry,
// таймауты и rate limiting; агрегация по множеству токенов живёт
// в resolver.go.

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const priceEndpoint = "/public/price"

// priceResponse - формат ответа оракула
type priceResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Value *float64 `json:"value"`
	} `json:"data"`
}

// Client - клиент оракула цен
type Client struct {
	baseURL string
	apiKey  string
	chain   string

	httpClient *http.Client
	limiter    *rate.Limiter
	retryCfg   retry.Config

	log *utils.Logger
}

// NewClient создает клиент оракула из конфигурации
func NewClient(cfg config.OracleConfig, log *utils.Logger) *Client {
	retryCfg := retry.OracleConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryBackoff > 0 {
		retryCfg.InitialDelay = cfg.RetryBackoff
	}
	retryCfg.RetryIf = retry.RetryIfNotContext

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		chain:   cfg.Chain,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:  limiter,
		retryCfg: retryCfg,
		log:      log.WithComponent("oracle"),
	}
}

// FetchPrice запрашивает текущую цену токена.
//
// Возвращает (цена, true) при успехе и (0, false) когда все попытки
// исчерпаны. Ошибка наружу не отдаётся: недоступная цена - это
// штатная ситуация, позиция просто пропускается до следующего тика.
// Каждая неудачная попытка логируется warning'ом с адресом токена,
// номером попытки и причиной.
func (c *Client) FetchPrice(ctx context.Context, tokenAddress string) (float64, bool) {
	attempt := 0

	price, err := retry.DoWithResult(ctx, func() (float64, error) {
		attempt++
		value, err := c.fetchOnce(ctx, tokenAddress)
		if err != nil {
			c.log.Warn("price fetch attempt failed",
				utils.TokenAddress(tokenAddress),
				utils.Attempt(attempt),
				utils.Err(err),
			)
			return 0, err
		}
		return value, nil
	}, c.retryCfg)

	if err != nil {
		return 0, false
	}
	return price, true
}

// fetchOnce выполняет один HTTP запрос к оракулу
func (c *Client) fetchOnce(ctx context.Context, tokenAddress string) (float64, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}

	query := url.Values{}
	query.Set("address", tokenAddress)
	query.Set("chain", c.chain)
	reqURL := c.baseURL + priceEndpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return 0, fmt.Errorf("decode price response: %w", err)
	}

	// Успешный HTTP статус ещё не означает успешный ответ:
	// payload должен нести success=true и непустое значение
	if !pr.Success || pr.Data.Value == nil {
		return 0, fmt.Errorf("oracle response missing price value")
	}

	c.log.Debug("price fetched",
		utils.TokenAddress(tokenAddress),
		utils.Price(*pr.Data.Value),
		utils.Latency(float64(time.Since(start).Milliseconds())),
	)

	return *pr.Data.Value, nil
}
