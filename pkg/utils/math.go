package utils

import (
	"math"
)

// math.go - математические утилиты для расчёта ликвидаций
//
// Назначение:
// Вспомогательные математические функции для оценки позиций.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - ClampMin / ClampMax / Clamp: ограничение значений
// - SafeDiv: деление с защитой от нулевого знаменателя
// - Abs / Min / Max: обёртки над math
// - CalculatePNL: знаковый PnL по направлению позиции

// ClampMin возвращает value, но не меньше floor.
//
// Используется для нормализации плеча (минимум 1.0) и залога
// (минимум 0.0) перед расчётами: грязные данные из стора не должны
// ломать формулы.
//
// Примеры:
//   - ClampMin(0.5, 1.0) = 1.0
//   - ClampMin(3.0, 1.0) = 3.0
//   - ClampMin(-2.0, 0.0) = 0.0
func ClampMin(value, floor float64) float64 {
	if value < floor {
		return floor
	}
	return value
}

// ClampMax возвращает value, но не больше ceil.
//
// Примеры:
//   - ClampMax(1.2, 1.0) = 1.0
//   - ClampMax(0.4, 1.0) = 0.4
func ClampMax(value, ceil float64) float64 {
	if value > ceil {
		return ceil
	}
	return value
}

// Clamp ограничивает значение диапазоном [min, max].
//
// Используется для margin ratio, который по контракту лежит в [0, 1].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SafeDiv делит a на b с защитой от нулевого и отрицательного знаменателя.
//
// Возвращает 0 если b <= 0. Применяется при переводе PnL в валюту
// залога: нулевая референсная цена означает "перевод невозможен",
// а не ошибку.
//
// Примеры:
//   - SafeDiv(10.0, 2.0) = 5.0
//   - SafeDiv(10.0, 0.0) = 0.0
//   - SafeDiv(10.0, -1.0) = 0.0
func SafeDiv(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

// Abs возвращает абсолютное значение числа.
func Abs(x float64) float64 {
	return math.Abs(x)
}

// Min возвращает минимум из двух чисел.
func Min(a, b float64) float64 {
	return math.Min(a, b)
}

// Max возвращает максимум из двух чисел.
func Max(a, b float64) float64 {
	return math.Max(a, b)
}

// CalculatePNL расчитывает знаковый PnL позиции с учётом плеча.
//
// Формулы:
//   - Long PNL  = (P_current - P_entry) × amount × leverage
//   - Short PNL = (P_entry - P_current) × amount × leverage
//
// Параметры:
//   - isLong: true для Long, false для Short
//   - entryPrice: цена входа
//   - currentPrice: текущая цена
//   - amount: объём позиции в монетах
//   - leverage: плечо (ожидается уже нормализованное, >= 1)
//
// Возвращает:
//   - PNL в валюте котировки (отрицательный = убыток)
func CalculatePNL(isLong bool, entryPrice, currentPrice, amount, leverage float64) float64 {
	if isLong {
		return (currentPrice - entryPrice) * amount * leverage
	}
	return (entryPrice - currentPrice) * amount * leverage
}
