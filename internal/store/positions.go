package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"

	"liqwatch/internal/config"
	"liqwatch/internal/models"
	"liqwatch/pkg/utils"
)

// positions.go - шлюз к стору позиций (REST поверх таблицы)
//
// Два вызова: чтение активных строк и идемпотентный перевод позиции
// в liquidated. Никакого локального состояния: стор - единственный
// источник истины.

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	positionsPath = "/rest/v1/trading_positions"

	// Фиксированный список колонок выборки: читаем только то,
	// что нужно для оценки
	selectColumns = "id,wallet_address,token_address,token_symbol,direction," +
		"entry_price,liquidation_price,amount,leverage,collateral_sol,status"

	// Фильтр статусов: liquidated/closed строки не возвращаются,
	// что и даёт идемпотентность цикла
	activeStatusFilter = "in.(open,opening)"
)

// Gateway - HTTP шлюз к стору позиций
type Gateway struct {
	baseURL    string
	serviceKey string

	httpClient *http.Client

	log *utils.Logger
}

// NewGateway создает шлюз из конфигурации
func NewGateway(cfg config.StoreConfig, log *utils.Logger) *Gateway {
	return &Gateway{
		baseURL:    cfg.URL,
		serviceKey: cfg.ServiceRoleKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log.WithComponent("store"),
	}
}

// setAuthHeaders выставляет заголовки авторизации стора
func (g *Gateway) setAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", g.serviceKey)
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	req.Header.Set("Content-Type", "application/json")
}

// ListActive возвращает все позиции в статусах open/opening.
//
// Ошибка здесь фатальна для тика: без свежего списка позиций
// оценивать нечего.
func (g *Gateway) ListActive(ctx context.Context) ([]models.Position, error) {
	query := url.Values{}
	query.Set("select", selectColumns)
	query.Set("status", activeStatusFilter)
	reqURL := g.baseURL + positionsPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	g.setAuthHeaders(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list active positions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read list response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var positions []models.Position
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}

	return positions, nil
}

// ClosureUpdate - значения, записываемые при ликвидации
type ClosureUpdate struct {
	ClosePrice  float64
	PnL         float64
	MarginRatio float64 // для логов; в стор не пишется
	ClosedAt    time.Time
}

// closureBody - тело PATCH запроса
type closureBody struct {
	Status              string  `json:"status"`
	ClosePrice          float64 `json:"close_price"`
	CloseReason         string  `json:"close_reason"`
	CurrentPnL          float64 `json:"current_pnl"`
	MarginCallTriggered bool    `json:"margin_call_triggered"`
	UpdatedAt           string  `json:"updated_at"`
	ClosedAt            string  `json:"closed_at"`
}

// MarkLiquidated переводит позицию в статус liquidated.
//
// Запись идемпотентна: повторный вызов полностью перезаписывает те же
// поля закрытия. updated_at и closed_at ставятся из одного момента.
// Успех = HTTP 200 или 204.
func (g *Gateway) MarkLiquidated(ctx context.Context, positionID string, u ClosureUpdate) error {
	ts := utils.UTCISOFrom(u.ClosedAt)
	payload := closureBody{
		Status:              models.StatusLiquidated,
		ClosePrice:          u.ClosePrice,
		CloseReason:         models.CloseReasonLiquidation,
		CurrentPnL:          u.PnL,
		MarginCallTriggered: true,
		UpdatedAt:           ts,
		ClosedAt:            ts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode closure: %w", err)
	}

	query := url.Values{}
	query.Set("id", "eq."+positionID)
	reqURL := g.baseURL + positionsPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build patch request: %w", err)
	}
	g.setAuthHeaders(req)
	req.Header.Set("Prefer", "return=representation")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mark liquidated %s: %w", positionID, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("store returned status %d for position %s: %s",
			resp.StatusCode, positionID, truncate(respBody, 200))
	}

	g.log.Debug("position marked liquidated",
		utils.Position(positionID),
		utils.Price(u.ClosePrice),
		utils.PNL(u.PnL),
		utils.MarginRatio(u.MarginRatio),
	)

	return nil
}

// truncate обрезает тело ответа для сообщений об ошибках
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
