package log

import "go.uber.org/atomic"

var (
	_ WithLogger   = &Binder{}
	_ LoggerBinder = &Binder{}
)

// WithLogger 由持有自身 Logger 的组件实现。
type WithLogger interface {
	Logger() *MLogger
}

// LoggerBinder 由允许替换 Logger 的组件实现。
type LoggerBinder interface {
	SetLogger(logger *MLogger)
}

// Binder 嵌入到组件中，为组件提供可替换的 Logger。零值可用。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

// SetLogger 绑定 logger，传 nil 恢复为全局 Logger。
func (w *Binder) SetLogger(logger *MLogger) {
	w.logger.Store(logger)
}

// Logger 返回绑定的 Logger，未绑定时返回全局 Logger。
func (w *Binder) Logger() *MLogger {
	if l := w.logger.Load(); l != nil {
		return l
	}
	return With()
}
