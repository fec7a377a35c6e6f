package log

import (
	"reflect"

	"go.uber.org/zap"
)

const (
	FieldNameComponent = "component"
	FieldNameType      = "type"
	FieldNameMember    = "member"
)

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldType 返回一个包含 Go 类型名的 zap 字段，t 为 nil 时输出 "<nil>"。
func FieldType(t reflect.Type) zap.Field {
	if t == nil {
		return zap.String(FieldNameType, "<nil>")
	}
	return zap.Stringer(FieldNameType, t)
}

// FieldMember 返回一个包含成员名的 zap 字段。
func FieldMember(name string) zap.Field {
	return zap.String(FieldNameMember, name)
}
