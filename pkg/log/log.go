// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 进程级的 Logger、属性和限流器，均可通过 ReplaceGlobals / ConfigureRateLimiter 替换。
var (
	_globalL atomic.Pointer[zap.Logger]
	_globalP atomic.Pointer[ZapProperties]
	_globalR atomic.Pointer[rateLimiterHolder]

	// _leveled 保存按最低级别过滤的 Logger，供 Ctx/WithLevel 使用。
	_leveled           sync.Map // zapcore.Level -> *zap.Logger
	_namedRateLimiters sync.Map // string -> *utils.ReconfigurableRateLimiter
)

// RateLimiter 是限流日志使用的最小接口。
type RateLimiter interface {
	CheckCredit(delta float64) bool
}

type rateLimiterHolder struct {
	RateLimiter
}

// nopRateLimiter 从不丢弃日志。
type nopRateLimiter struct{}

func (nopRateLimiter) CheckCredit(float64) bool { return true }

func init() {
	l, p := newStdLogger()
	ReplaceGlobals(l, p)
	ConfigureRateLimiter(
		getenvBool("BYTECONV_LOG_RATE_ENABLE", false),
		getenvFloat("BYTECONV_LOG_RATE_CREDIT_PER_SECOND", 1.0),
		getenvFloat("BYTECONV_LOG_RATE_MAX_BALANCE", 60.0),
	)
}

// InitLogger 按 cfg 创建 Logger，输出到文件（cfg.File.Filename 非空时）和/或标准输出。
// 两者都未开启时日志被丢弃。
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	var outputs []zapcore.WriteSyncer
	if cfg.File.Filename != "" {
		lg, err := initFileLog(&cfg.File)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, zapcore.AddSync(lg))
	}
	if cfg.Stdout {
		outputs = append(outputs, zapcore.Lock(os.Stdout))
	}
	if len(outputs) == 0 {
		outputs = append(outputs, zapcore.AddSync(discard{}))
	}
	lg, props, err := InitLoggerWithWriteSyncer(cfg, zap.CombineWriteSyncers(outputs...), opts...)
	if err != nil {
		return nil, nil, err
	}
	return lg.WithOptions(zap.AddCallerSkip(1)), props, nil
}

// InitTestLogger 创建一个输出到 t.Log 的 Logger，zap 内部错误会让测试失败。
func InitTestLogger(t zaptest.TestingT, cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	writer := newTestingWriter(t)
	opts = append([]zap.Option{zap.ErrorOutput(writer.WithMarkFailed(true))}, opts...)
	return InitLoggerWithWriteSyncer(cfg, writer, opts...)
}

// InitLoggerWithWriteSyncer 使用给定的 WriteSyncer 创建 Logger。
// "trace" 级别按 debug 处理。
func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	cfg.initialize()
	level := zap.NewAtomicLevel()
	text := cfg.Level
	if strings.EqualFold(text, "trace") {
		text = "debug"
	}
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return nil, nil, errors.Wrapf(err, "parse log level %q", cfg.Level)
	}
	core := zapcore.NewCore(newZapEncoder(cfg), output, level)
	lg := zap.New(core, append(cfg.buildOptions(output), opts...)...)
	return lg, &ZapProperties{Core: core, Syncer: output, Level: level}, nil
}

func initFileLog(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	logPath := filepath.Join(cfg.RootPath, cfg.Filename)
	if st, err := os.Stat(logPath); err == nil && st.IsDir() {
		return nil, errors.Newf("log file %s is a directory", logPath)
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}

func newStdLogger() (*zap.Logger, *ZapProperties) {
	conf := &Config{Level: "info", Stdout: true, DisableErrorVerbose: true}
	lg, p, _ := InitLogger(conf, zap.OnFatal(zapcore.WriteThenPanic))
	return lg, p
}

// L 返回全局 Logger，并发安全。
func L() *zap.Logger {
	return _globalL.Load()
}

// R 返回全局限流器，未开启限流时返回从不丢弃的实现。
func R() RateLimiter {
	if h := _globalR.Load(); h != nil && h.RateLimiter != nil {
		return h.RateLimiter
	}
	return nopRateLimiter{}
}

// ConfigureRateLimiter 替换全局限流器。
func ConfigureRateLimiter(enabled bool, creditPerSecond, maxBalance float64) {
	if !enabled {
		_globalR.Store(&rateLimiterHolder{nopRateLimiter{}})
		return
	}
	_globalR.Store(&rateLimiterHolder{utils.NewRateLimiter(creditPerSecond, maxBalance)})
}

// ReplaceGlobals 替换全局 Logger 及其属性。
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	_globalL.Store(logger)
	_globalP.Store(props)
	for _, level := range []zapcore.Level{
		zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel, zapcore.FatalLevel,
	} {
		// 低于 core 当前级别的 IncreaseLevel 会报错，直接复用原 Logger。
		if !logger.Core().Enabled(level) {
			_leveled.Store(level, logger)
			continue
		}
		_leveled.Store(level, logger.WithOptions(zap.IncreaseLevel(level)))
	}
}

// leveled 返回至少为 level 级别才输出的全局 Logger。
func leveled(level zapcore.Level) *zap.Logger {
	if l, ok := _leveled.Load(level); ok {
		return l.(*zap.Logger)
	}
	return L()
}

// ctxL 是 Ctx 在 ctx 未携带 Logger 时使用的 Logger。
func ctxL() *zap.Logger {
	return leveled(Level().Level())
}

// Sync 刷新缓冲的日志。
func Sync() error {
	return L().Sync()
}

func Level() zap.AtomicLevel {
	return _globalP.Load().Level
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getenvFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return f
}
