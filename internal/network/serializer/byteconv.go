package serializer

import (
	"fmt"
	"reflect"

	"github.com/lk2023060901/byteconv-go/pkg/byteconv"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// ByteconvSerializer 使用 pkg/byteconv 的二进制格式。
// 双方必须使用相同的选项。
type ByteconvSerializer struct {
	opts []byteconv.Option
}

// 编译期断言：确保 ByteconvSerializer 实现了 Serializer 接口。
var _ Serializer = (*ByteconvSerializer)(nil)

func NewByteconvSerializer(opts ...byteconv.Option) *ByteconvSerializer {
	return &ByteconvSerializer{opts: opts}
}

func (s *ByteconvSerializer) Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, merr.WrapErrParameterInvalid("value", "nil", "marshal")
	}
	enc, err := byteconv.NewEncoder(v, s.opts...)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll()
}

// Unmarshal 按 v 指向的类型解码，并把结果写入 *v。
func (s *ByteconvSerializer) Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return merr.WrapErrParameterInvalid("non-nil pointer", fmt.Sprintf("%T", v), "unmarshal")
	}
	dec, err := byteconv.NewDecoder(rv.Type().Elem(), s.opts...)
	if err != nil {
		return err
	}
	val, err := dec.DecodeAll(data)
	if err != nil {
		return err
	}
	rv.Elem().Set(val)
	return nil
}
