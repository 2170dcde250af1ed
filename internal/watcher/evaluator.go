package watcher

import (
	"liqwatch/internal/models"
	"liqwatch/pkg/utils"
)

// evaluator.go - чистая логика решения о ликвидации
//
// Никаких side effects: вход - снапшот позиции и две цены,
// выход - решение. Всё остальное (запись в стор, логи, метрики)
// живёт в engine.

// marginCallThreshold - порог margin ratio для принудительного закрытия.
// Чуть ниже 1.0: узкая полоса толерантности к накопленной float-ошибке
// около полной потери залога.
const marginCallThreshold = 0.999

// Decision - результат оценки одной позиции
type Decision struct {
	ShouldLiquidate bool
	PnL             float64 // знаковый, в валюте котировки
	MarginRatio     float64 // доля залога, съеденная убытком [0..1]
}

// Evaluate оценивает позицию против текущей и референсной цены.
//
// Два независимых триггера, объединяемых по ИЛИ:
//   - ценовой: Long ликвидируется при current <= liquidation,
//     Short - при current >= liquidation;
//   - маржинальный: убыток, переведённый в валюту залога по
//     референсной цене, съел >= 99.9% залога.
//
// refPrice <= 0 отключает маржинальный триггер (перевод невозможен),
// ценовой продолжает работать.
func Evaluate(p *models.Position, currentPrice, refPrice float64) Decision {
	isLong := p.NormalizedDirection().IsLong()
	leverage := p.ClampedLeverage()
	collateral := p.ClampedCollateral()

	pnl := utils.CalculatePNL(isLong,
		p.EntryPrice.Float64(), currentPrice, p.Amount.Float64(), leverage)

	// Ценовой триггер
	var priceTrigger bool
	if isLong {
		priceTrigger = currentPrice <= p.LiquidationPrice.Float64()
	} else {
		priceTrigger = currentPrice >= p.LiquidationPrice.Float64()
	}

	// PnL в валюте залога через референсную цену
	pnlRef := utils.SafeDiv(pnl, refPrice)

	// Margin ratio определён только для убыточной позиции с залогом
	var marginRatio float64
	if pnlRef < 0 && collateral > 0 {
		marginRatio = utils.ClampMax(utils.Abs(pnlRef)/collateral, 1.0)
	}

	marginTrigger := marginRatio >= marginCallThreshold

	return Decision{
		ShouldLiquidate: priceTrigger || marginTrigger,
		PnL:             pnl,
		MarginRatio:     marginRatio,
	}
}
