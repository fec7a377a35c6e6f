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
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxLogKeyType struct{}

// CtxLogKey 是 ctx 中保存 *MLogger 的键。
var CtxLogKey = ctxLogKeyType{}

// Debug 使用全局 Logger 输出 Debug 日志。有 ctx 时优先使用 Ctx(ctx).Debug。
func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

// Info 使用全局 Logger 输出 Info 日志。
func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

// Warn 使用全局 Logger 输出 Warn 日志。
func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

// Error 使用全局 Logger 输出 Error 日志。
func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// RatedWarn 经全局限流器放行后输出 Warn 日志，返回是否输出。
// 用于可能在热路径上反复出现的告警，例如解码时跳过的未知成员。
func RatedWarn(cost float64, msg string, fields ...zap.Field) bool {
	if R().CheckCredit(cost) {
		L().Warn(msg, fields...)
		return true
	}
	return false
}

// With 返回携带额外字段的全局 Logger，字段在第一次输出时才编码。
func With(fields ...zap.Field) *MLogger {
	return &MLogger{
		Logger: L().WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return NewLazyWith(core, fields)
		})).WithOptions(zap.AddCallerSkip(-1)),
	}
}

// SetLevel 设置全局日志级别。
func SetLevel(l zapcore.Level) {
	Level().SetLevel(l)
}

// GetLevel 返回全局日志级别。
func GetLevel() zapcore.Level {
	return Level().Level()
}

// WithComponent 为 ctx 中的 Logger 添加组件名字段。
func WithComponent(ctx context.Context, component string) context.Context {
	return WithFields(ctx, FieldComponent(component))
}

// WithFields 返回一个附加了指定字段的上下文。
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, CtxLogKey, &MLogger{
		Logger: Ctx(ctx).Logger.With(fields...),
	})
}

// WithLevel 返回一个携带至少为 level 级别才输出的 Logger 的上下文。
// 会覆盖 ctx 上已有的 Logger 及其字段。
func WithLevel(ctx context.Context, level zapcore.Level) context.Context {
	return context.WithValue(ctx, CtxLogKey, &MLogger{Logger: leveled(level)})
}

// NewIntentContext 为一次独立的操作创建根上下文和对应的 span，
// 上下文中的 Logger 携带 role、intent 与 traceID 字段。
func NewIntentContext(name string, intent string) (context.Context, trace.Span) {
	intentCtx, span := otel.Tracer(name).Start(context.Background(), intent)
	intentCtx = WithFields(intentCtx,
		zap.String("role", name),
		zap.String("intent", intent),
		zap.String("traceID", span.SpanContext().TraceID().String()))
	return intentCtx, span
}

// Ctx 返回 ctx 上携带的 Logger，没有时返回全局 Logger。
func Ctx(ctx context.Context) *MLogger {
	if ctx != nil {
		if l, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
			return l
		}
	}
	return &MLogger{Logger: ctxL()}
}
