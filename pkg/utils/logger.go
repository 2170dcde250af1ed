package utils

// logger.go - структурированное логирование на базе zap
//
// Назначение:
// Единая точка инициализации и доступа к логгеру процесса.
// Вся диагностика ликвидационного цикла (попытки запросов к оракулу,
// пропуски тиков, записи ликвидаций) идёт через этот пакет.
//
// Возможности:
// - Уровни: DEBUG, INFO, WARN, ERROR, FATAL (LOG_LEVEL)
// - Форматы: JSON для production, text для локальной отладки (LOG_FORMAT)
// - Вывод в stdout или файл
// - Глобальный логгер + доменные конструкторы полей

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig - конфигурация логгера
type LogConfig struct {
	Level       string // debug | info | warn | error | fatal
	Format      string // json | text
	Output      string // путь к файлу; пусто = stdout
	Development bool   // человекочитаемый вывод с caller
}

// Logger - обёртка над zap.Logger с sugar-вариантом для printf-стиля
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// ============================================================
// Инициализация
// ============================================================

// InitLogger создаёт логгер по конфигурации.
// Никогда не возвращает nil: при некорректном Output откатывается на stderr.
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	var encoderCfg zapcore.EncoderConfig
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.TimeKey = "ts"
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder
	if strings.EqualFold(cfg.Format, "text") {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	sink := zapcore.AddSync(os.Stdout)
	if cfg.Output != "" {
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			// Файл недоступен - не падаем, пишем в stderr
			sink = zapcore.AddSync(os.Stderr)
		} else {
			sink = zapcore.AddSync(file)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	var opts []zap.Option
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}

	zl := zap.New(core, opts...)
	return &Logger{
		Logger: zl,
		sugar:  zl.Sugar(),
	}
}

// parseLevel переводит строковый уровень в zapcore.Level.
// Неизвестные значения трактуются как info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ============================================================
// Глобальный логгер
// ============================================================

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// InitGlobalLogger инициализирует глобальный логгер и возвращает его
func InitGlobalLogger(cfg LogConfig) *Logger {
	logger := InitLogger(cfg)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger подменяет глобальный логгер (используется в тестах)
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetGlobalLogger возвращает глобальный логгер.
// Если он не инициализирован - лениво создаёт дефолтный (info, json).
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()

	if logger != nil {
		return logger
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L - короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// ============================================================
// Методы Logger
// ============================================================

// With возвращает дочерний логгер с дополнительными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{
		Logger: child,
		sugar:  child.Sugar(),
	}
}

// Sugar возвращает SugaredLogger для printf-стиля
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// WithComponent помечает логгер именем компонента (engine, oracle, store)
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithToken помечает логгер адресом токена
func (l *Logger) WithToken(address string) *Logger {
	return l.With(TokenAddress(address))
}

// WithPosition помечает логгер идентификатором позиции
func (l *Logger) WithPosition(id string) *Logger {
	return l.With(Position(id))
}

// ============================================================
// Глобальные функции логирования
// ============================================================

func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { GetGlobalLogger().Fatal(msg, fields...) }

func Debugf(format string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { GetGlobalLogger().sugar.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { GetGlobalLogger().sugar.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(format, args...) }

// ============================================================
// Доменные конструкторы полей
// ============================================================

// Component - имя компонента (engine, oracle, store, api)
func Component(name string) zap.Field { return zap.String("component", name) }

// Position - идентификатор позиции в сторе
func Position(id string) zap.Field { return zap.String("position_id", id) }

// Wallet - адрес кошелька владельца позиции
func Wallet(address string) zap.Field { return zap.String("wallet", address) }

// Token - тикер токена (SOL, BONK, ...)
func Token(symbol string) zap.Field { return zap.String("token", symbol) }

// TokenAddress - on-chain адрес токена
func TokenAddress(address string) zap.Field { return zap.String("token_address", address) }

// Direction - направление позиции (Long/Short)
func Direction(dir string) zap.Field { return zap.String("direction", dir) }

// Price - текущая цена в котируемой валюте
func Price(value float64) zap.Field { return zap.Float64("price", value) }

// LiquidationPrice - пороговая цена ликвидации
func LiquidationPrice(value float64) zap.Field { return zap.Float64("liquidation_price", value) }

// PNL - реализованный PnL в котируемой валюте
func PNL(value float64) zap.Field { return zap.Float64("pnl", value) }

// MarginRatio - доля залога, съеденная убытком [0..1]
func MarginRatio(value float64) zap.Field { return zap.Float64("margin_ratio", value) }

// Attempt - номер попытки при retry
func Attempt(n int) zap.Field { return zap.Int("attempt", n) }

// Status - статус позиции или результата операции
func Status(s string) zap.Field { return zap.String("status", s) }

// Latency - длительность операции в миллисекундах
func Latency(ms float64) zap.Field { return zap.Float64("latency_ms", ms) }

// ============================================================
// Переэкспорт стандартных конструкторов zap
// ============================================================

func String(key, value string) zap.Field          { return zap.String(key, value) }
func Int(key string, value int) zap.Field         { return zap.Int(key, value) }
func Int64(key string, value int64) zap.Field     { return zap.Int64(key, value) }
func Float64(key string, value float64) zap.Field { return zap.Float64(key, value) }
func Bool(key string, value bool) zap.Field       { return zap.Bool(key, value) }
func Err(err error) zap.Field                     { return zap.Error(err) }
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }

// fieldsToInterface разворачивает zap-поля в пары key/value для sugar API
func fieldsToInterface(fields []zap.Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Interface)
	}
	return out
}
