package utils

import (
	"time"
)

// time.go - утилиты для работы со временем
//
// Назначение:
// Временные метки для полей закрытия позиций и вычисление остатка
// сна для планировщика тиков.
//
// Функции:
// - NowUTCISO / UTCISOFrom: метки времени в формате ISO 8601 (UTC)
// - RemainingSleep: остаток интервала после завершения тика
// - UnixMillis / FromUnixMillis: работа с Unix-метками

// ISOLayout - формат временных меток, записываемых в стор.
// Секундная точность, суффикс Z: "2026-01-15T14:30:45Z".
const ISOLayout = "2006-01-02T15:04:05Z"

// NowUTCISO возвращает текущий момент в формате ISO 8601 UTC.
//
// Пример: "2026-01-15T14:30:45Z"
func NowUTCISO() string {
	return UTCISOFrom(time.Now())
}

// UTCISOFrom форматирует указанное время в ISO 8601 UTC
func UTCISOFrom(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// RemainingSleep возвращает остаток интервала после тика длительностью elapsed.
//
// Каденция отсчитывается от НАЧАЛА тика: если тик занял дольше
// интервала, следующий стартует немедленно (остаток = 0).
//
// Примеры:
//   - RemainingSleep(3s, 1s) = 2s
//   - RemainingSleep(3s, 5s) = 0
func RemainingSleep(interval, elapsed time.Duration) time.Duration {
	remaining := interval - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ============================================================
// Утилиты для timestamp
// ============================================================

// UnixMillis возвращает текущее время в миллисекундах Unix
func UnixMillis() int64 {
	return time.Now().UnixMilli()
}

// FromUnixMillis конвертирует миллисекунды Unix в time.Time
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
