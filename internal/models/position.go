package models

import (
	"strconv"
	"strings"

	"liqwatch/pkg/utils"
)

// position.go - снапшот торговой позиции из стора
//
// Позиция читается заново каждый тик: движок не хранит состояние
// между тиками, единственная запись - перевод в статус liquidated.

// Direction - направление позиции
type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

// Статусы позиции
const (
	StatusOpening    = "opening"
	StatusOpen       = "open"
	StatusLiquidated = "liquidated"
	StatusClosed     = "closed"
)

// CloseReasonLiquidation - причина закрытия, записываемая движком
const CloseReasonLiquidation = "liquidation"

// NormalizeDirection приводит строку направления к каноническому виду.
//
// Сравнение регистронезависимое; любое нераспознанное значение
// трактуется как Long.
func NormalizeDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "short") {
		return DirectionShort
	}
	return DirectionLong
}

// IsLong возвращает true для Long-направления
func (d Direction) IsLong() bool {
	return d != DirectionShort
}

// Numeric - число из стора, приходящее как JSON number, строка или null.
//
// Все варианты декодируются в float64; null, пустая строка и мусор
// дают 0 без ошибки: одна грязная колонка не должна ронять чтение
// всей выборки.
type Numeric float64

// UnmarshalJSON реализует толерантное декодирование
func (n *Numeric) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Numeric(v)
	return nil
}

// Float64 возвращает значение как float64
func (n Numeric) Float64() float64 {
	return float64(n)
}

// Position - снапшот строки trading_positions, как её отдаёт стор
type Position struct {
	ID               string  `json:"id"`
	WalletAddress    string  `json:"wallet_address"`
	TokenAddress     string  `json:"token_address"`
	TokenSymbol      string  `json:"token_symbol"`
	Direction        string  `json:"direction"`         // Long/Short, нормализуется при оценке
	EntryPrice       Numeric `json:"entry_price"`
	LiquidationPrice Numeric `json:"liquidation_price"`
	Amount           Numeric `json:"amount"`
	Leverage         Numeric `json:"leverage"`          // < 1 поднимается до 1
	CollateralSOL    Numeric `json:"collateral_sol"`    // < 0 опускается до 0
	Status           string  `json:"status"`
}

// NormalizedDirection возвращает каноническое направление позиции
func (p *Position) NormalizedDirection() Direction {
	return NormalizeDirection(p.Direction)
}

// ClampedLeverage возвращает плечо, поднятое минимум до 1.0
func (p *Position) ClampedLeverage() float64 {
	return utils.ClampMin(p.Leverage.Float64(), 1.0)
}

// ClampedCollateral возвращает залог, опущенный минимум до 0.0
func (p *Position) ClampedCollateral() float64 {
	return utils.ClampMin(p.CollateralSOL.Float64(), 0.0)
}
