package watcher

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"liqwatch/internal/config"
	"liqwatch/internal/models"
	"liqwatch/internal/store"
	"liqwatch/pkg/utils"
)

// engine.go - оркестратор тиков и планировщик
//
// Тики строго последовательные. Каденция отсчитывается от начала
// тика: остаток интервала досыпается, медленный тик запускает
// следующий немедленно. Stop прерывает только сон между тиками -
// начатый тик всегда дорабатывает до конца.

// PositionStore - операции стора, нужные движку
type PositionStore interface {
	ListActive(ctx context.Context) ([]models.Position, error)
	MarkLiquidated(ctx context.Context, positionID string, u store.ClosureUpdate) error
}

// PriceSource - источник цен: референсная цена и пачка по адресам
type PriceSource interface {
	FetchPrice(ctx context.Context, tokenAddress string) (float64, bool)
	ResolvePrices(ctx context.Context, addresses []string) map[string]float64
}

// Engine - цикл ликвидаций
type Engine struct {
	store  PositionStore
	prices PriceSource
	cfg    config.WatcherConfig

	log *utils.Logger

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	running       atomic.Bool
	ticksTotal    atomic.Int64
	tickFailures  atomic.Int64
	liquidations  atomic.Int64
	lastTickUnix  atomic.Int64 // unix millis старта последнего тика
	openPositions atomic.Int64

	startedAt time.Time
}

// NewEngine создает движок ликвидаций
func NewEngine(positions PositionStore, prices PriceSource, cfg config.WatcherConfig, log *utils.Logger) *Engine {
	return &Engine{
		store:  positions,
		prices: prices,
		cfg:    cfg,
		log:    log.WithComponent("engine"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Run запускает цикл и блокируется до Stop.
// Повторный запуск после Stop не поддерживается.
func (e *Engine) Run() {
	e.startedAt = time.Now()
	e.running.Store(true)
	defer func() {
		e.running.Store(false)
		close(e.doneCh)
	}()

	e.log.Info("liquidation engine started",
		utils.Float64("poll_interval_seconds", e.cfg.PollInterval.Seconds()),
		utils.Int("concurrency", e.cfg.Concurrency),
		utils.TokenAddress(e.cfg.ReferenceMint),
	)

	for {
		start := time.Now()
		e.safeTick()

		remaining := utils.RemainingSleep(e.cfg.PollInterval, time.Since(start))

		select {
		case <-e.stopCh:
			e.log.Info("liquidation engine stopped",
				utils.Int64("ticks", e.ticksTotal.Load()),
				utils.Int64("liquidations", e.liquidations.Load()),
			)
			return
		case <-time.After(remaining):
		}
	}
}

// Stop запрашивает остановку. Текущий тик дорабатывает; возврат
// из Run сигнализируется через Done.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})
}

// Done закрывается когда Run полностью завершился
func (e *Engine) Done() <-chan struct{} {
	return e.doneCh
}

// safeTick выполняет тик с ловушкой паники на границе.
// Паника одного тика логируется со стеком и не роняет цикл.
func (e *Engine) safeTick() {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.tickFailures.Add(1)
			RecordTick("panic", time.Since(start).Seconds())
			e.log.Error("tick panicked",
				utils.Any("panic", r),
				utils.String("stack", string(debug.Stack())),
			)
		}
	}()

	e.ticksTotal.Add(1)
	e.lastTickUnix.Store(start.UnixMilli())

	// Тик работает на фоновом контексте: Stop не отменяет начатую
	// работу, только сон между тиками
	result := e.tick(context.Background())
	RecordTick(result, time.Since(start).Seconds())
	if result == "error" {
		e.tickFailures.Add(1)
	}
}

// tick - один проход по всем активным позициям.
// Возвращает метку результата для метрик.
func (e *Engine) tick(ctx context.Context) string {
	positions, err := e.store.ListActive(ctx)
	if err != nil {
		e.log.Error("failed to list active positions", utils.Err(err))
		return "error"
	}

	e.openPositions.Store(int64(len(positions)))
	UpdateOpenPositions(len(positions))

	if len(positions) == 0 {
		return "empty"
	}

	// Референсная цена нужна для перевода PnL в валюту залога;
	// без неё margin-триггер неопределён для всех позиций разом
	refPrice, ok := e.prices.FetchPrice(ctx, e.cfg.ReferenceMint)
	if !ok || refPrice <= 0 {
		e.log.Warn("reference price unavailable, skipping tick",
			utils.TokenAddress(e.cfg.ReferenceMint),
		)
		return "no_reference"
	}

	addresses := distinctAddresses(positions)
	prices := e.prices.ResolvePrices(ctx, addresses)
	RecordUnresolvedPrices(len(addresses) - len(prices))

	if len(prices) == 0 {
		e.log.Warn("no token prices resolved, skipping tick",
			utils.Int("addresses", len(addresses)),
		)
		return "no_prices"
	}

	var liquidated, deferred int
	for i := range positions {
		p := &positions[i]

		if p.TokenAddress == "" {
			RecordDeferred("no_address")
			deferred++
			continue
		}
		current, ok := prices[p.TokenAddress]
		if !ok {
			RecordDeferred("no_price")
			deferred++
			continue
		}

		PositionsEvaluated.Inc()
		decision := Evaluate(p, current, refPrice)
		if !decision.ShouldLiquidate {
			continue
		}

		e.log.Info("liquidation triggered",
			utils.Position(p.ID),
			utils.Direction(string(p.NormalizedDirection())),
			utils.Token(p.TokenSymbol),
			utils.Price(current),
			utils.LiquidationPrice(p.LiquidationPrice.Float64()),
			utils.PNL(decision.PnL),
			utils.MarginRatio(decision.MarginRatio),
		)

		err := e.store.MarkLiquidated(ctx, p.ID, store.ClosureUpdate{
			ClosePrice:  current,
			PnL:         decision.PnL,
			MarginRatio: decision.MarginRatio,
			ClosedAt:    time.Now(),
		})
		if err != nil {
			// Провал записи одной позиции не прерывает обход:
			// строка останется активной и попадёт в следующий тик
			RecordWriteFailure()
			e.log.Error("failed to mark position liquidated",
				utils.Position(p.ID),
				utils.Err(err),
			)
			continue
		}

		RecordLiquidation()
		e.liquidations.Add(1)
		liquidated++
	}

	e.log.Debug("tick complete",
		utils.Int("positions", len(positions)),
		utils.Int("liquidated", liquidated),
		utils.Int("deferred", deferred),
	)

	return "ok"
}

// distinctAddresses собирает уникальные непустые адреса токенов
func distinctAddresses(positions []models.Position) []string {
	seen := make(map[string]struct{}, len(positions))
	addresses := make([]string, 0, len(positions))
	for i := range positions {
		addr := positions[i].TokenAddress
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}
	return addresses
}

// ============================================================
// Статистика для операционного API
// ============================================================

// Stats - снапшот счётчиков движка
type Stats struct {
	Running             bool    `json:"running"`
	PollIntervalSeconds float64 `json:"poll_interval_seconds"`
	TicksTotal          int64   `json:"ticks_total"`
	TickFailures        int64   `json:"tick_failures"`
	LiquidationsTotal   int64   `json:"liquidations_total"`
	OpenPositions       int64   `json:"open_positions"`
	LastTickAt          string  `json:"last_tick_at,omitempty"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
}

// Stats возвращает текущий снапшот счётчиков
func (e *Engine) Stats() Stats {
	s := Stats{
		Running:             e.running.Load(),
		PollIntervalSeconds: e.cfg.PollInterval.Seconds(),
		TicksTotal:          e.ticksTotal.Load(),
		TickFailures:        e.tickFailures.Load(),
		LiquidationsTotal:   e.liquidations.Load(),
		OpenPositions:       e.openPositions.Load(),
	}
	if ms := e.lastTickUnix.Load(); ms > 0 {
		s.LastTickAt = utils.UTCISOFrom(utils.FromUnixMillis(ms))
	}
	if !e.startedAt.IsZero() {
		s.UptimeSeconds = time.Since(e.startedAt).Seconds()
	}
	return s
}
