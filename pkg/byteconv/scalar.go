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

package byteconv

import (
	"encoding/binary"
	"math"
	"math/big"
	"reflect"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lk2023060901/byteconv-go/pkg/byteconv/cursor"
	"github.com/lk2023060901/byteconv-go/pkg/byteconv/typeinfo"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// scalarConverter 编解码定长标量，枚举按其底层整数种类处理。
// 定长标量总是整体读写，不需要 frame。
type scalarConverter struct {
	detail *typeinfo.TypeDetail
}

func (c *scalarConverter) read(s *decodeState, depth int, dst reflect.Value) (bool, error) {
	need, err := readScalar(&s.r, c.detail.Scalar, dst)
	if err != nil {
		return false, err
	}
	if need > 0 {
		return s.short(need)
	}
	return true, nil
}

func (c *scalarConverter) write(s *encodeState, depth int, src reflect.Value) (bool, error) {
	need, err := writeScalar(&s.w, c.detail.Scalar, src)
	if err != nil {
		return false, err
	}
	if need > 0 {
		return s.short(need)
	}
	return true, nil
}

func (c *scalarConverter) size(z sizer, depth int, src reflect.Value) (int, error) {
	return c.detail.Scalar.Size(), nil
}

func readScalar(r *cursor.Reader, kind typeinfo.ScalarKind, dst reflect.Value) (int, error) {
	if need := kind.Size() - r.Remaining(); need > 0 {
		return need, nil
	}
	switch kind {
	case typeinfo.KindBool:
		v, _ := r.ReadBool()
		dst.SetBool(v)
	case typeinfo.KindInt8:
		v, _ := cursor.ReadInt[int8](r)
		dst.SetInt(int64(v))
	case typeinfo.KindInt16:
		v, _ := cursor.ReadInt[int16](r)
		dst.SetInt(int64(v))
	case typeinfo.KindInt32:
		v, _ := cursor.ReadInt[int32](r)
		dst.SetInt(int64(v))
	case typeinfo.KindInt64, typeinfo.KindInt, typeinfo.KindDuration:
		v, _ := cursor.ReadInt[int64](r)
		dst.SetInt(v)
	case typeinfo.KindUint8:
		v, _ := r.ReadUint8()
		dst.SetUint(uint64(v))
	case typeinfo.KindUint16:
		v, _ := r.ReadUint16()
		dst.SetUint(uint64(v))
	case typeinfo.KindUint32:
		v, _ := r.ReadUint32()
		dst.SetUint(uint64(v))
	case typeinfo.KindUint64, typeinfo.KindUint, typeinfo.KindUintptr:
		v, _ := r.ReadUint64()
		dst.SetUint(v)
	case typeinfo.KindFloat32:
		v, _ := r.ReadFloat32()
		*(*float32)(dst.Addr().UnsafePointer()) = v
	case typeinfo.KindFloat64:
		v, _ := r.ReadFloat64()
		dst.SetFloat(v)
	case typeinfo.KindComplex64:
		re, _ := r.ReadFloat32()
		im, _ := r.ReadFloat32()
		*(*complex64)(dst.Addr().UnsafePointer()) = complex(re, im)
	case typeinfo.KindComplex128:
		re, _ := r.ReadFloat64()
		im, _ := r.ReadFloat64()
		dst.SetComplex(complex(re, im))
	case typeinfo.KindTime:
		t, err := readTime(r)
		if err != nil {
			return 0, err
		}
		dst.Set(reflect.ValueOf(t))
	case typeinfo.KindUUID:
		p, _ := r.ReadBytes(16)
		var u uuid.UUID
		copy(u[:], p)
		dst.Set(reflect.ValueOf(u))
	case typeinfo.KindDecimal:
		p, _ := r.ReadBytes(decimalSize)
		dst.Set(reflect.ValueOf(decodeDecimal(p)))
	default:
		return 0, merr.WrapErrUnsupportedType(dst.Type().String(), "", kind.String())
	}
	return 0, nil
}

func writeScalar(w *cursor.Writer, kind typeinfo.ScalarKind, src reflect.Value) (int, error) {
	if need := kind.Size() - w.Available(); need > 0 {
		return need, nil
	}
	switch kind {
	case typeinfo.KindBool:
		w.WriteBool(src.Bool())
	case typeinfo.KindInt8:
		cursor.WriteInt(w, int8(src.Int()))
	case typeinfo.KindInt16:
		cursor.WriteInt(w, int16(src.Int()))
	case typeinfo.KindInt32:
		cursor.WriteInt(w, int32(src.Int()))
	case typeinfo.KindInt64, typeinfo.KindInt, typeinfo.KindDuration:
		cursor.WriteInt(w, src.Int())
	case typeinfo.KindUint8:
		w.WriteUint8(uint8(src.Uint()))
	case typeinfo.KindUint16:
		w.WriteUint16(uint16(src.Uint()))
	case typeinfo.KindUint32:
		w.WriteUint32(uint32(src.Uint()))
	case typeinfo.KindUint64, typeinfo.KindUint, typeinfo.KindUintptr:
		w.WriteUint64(src.Uint())
	case typeinfo.KindFloat32:
		w.WriteFloat32(*(*float32)(scalarPointer(src)))
	case typeinfo.KindFloat64:
		w.WriteFloat64(src.Float())
	case typeinfo.KindComplex64:
		v := *(*complex64)(scalarPointer(src))
		w.WriteFloat32(real(v))
		w.WriteFloat32(imag(v))
	case typeinfo.KindComplex128:
		v := src.Complex()
		w.WriteFloat64(real(v))
		w.WriteFloat64(imag(v))
	case typeinfo.KindTime:
		writeTime(w, src.Interface().(time.Time))
	case typeinfo.KindUUID:
		u := src.Interface().(uuid.UUID)
		w.WriteBytes(u[:])
	case typeinfo.KindDecimal:
		p, err := encodeDecimal(src.Interface().(decimal.Decimal))
		if err != nil {
			return 0, err
		}
		w.WriteBytes(p[:])
	default:
		return 0, merr.WrapErrUnsupportedType(src.Type().String(), "", kind.String())
	}
	return 0, nil
}

// scalarPointer 返回 v 的地址，不可寻址时先复制一份。
// float32 与 complex64 按原始位读写，经 float64 转换会丢失 NaN 载荷。
func scalarPointer(v reflect.Value) unsafe.Pointer {
	if !v.CanAddr() {
		tmp := reflect.New(v.Type()).Elem()
		tmp.Set(v)
		v = tmp
	}
	return v.Addr().UnsafePointer()
}

// utcOffset 表示时间位于 UTC，而不是偏移为 0 的固定时区。
const utcOffset = math.MinInt32

// 时间编码为 int64 秒、int32 纳秒、int32 时区偏移（秒）。
func writeTime(w *cursor.Writer, t time.Time) {
	offset := int32(utcOffset)
	if t.Location() != time.UTC {
		_, sec := t.Zone()
		offset = int32(sec)
	}
	cursor.WriteInt(w, t.Unix())
	cursor.WriteInt(w, int32(t.Nanosecond()))
	cursor.WriteInt(w, offset)
}

func readTime(r *cursor.Reader) (time.Time, error) {
	sec, _ := cursor.ReadInt[int64](r)
	nsec, _ := cursor.ReadInt[int32](r)
	offset, _ := cursor.ReadInt[int32](r)
	if nsec < 0 || nsec >= int32(time.Second) {
		return time.Time{}, merr.WrapErrValueOutOfRange("time nanoseconds", nsec)
	}
	t := time.Unix(sec, int64(nsec))
	if offset == utcOffset {
		return t.UTC(), nil
	}
	return t.In(time.FixedZone("", int(offset))), nil
}

// decimal 编码为 int32 指数和 16 字节大端补码系数。
const (
	decimalSize     = 20
	coefficientSize = 16
)

// 系数取值范围 [-2^127, 2^127-1]。
var (
	coefficientMin = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), coefficientSize*8-1))
	coefficientMax = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), coefficientSize*8-1), big.NewInt(1))
)

func encodeDecimal(d decimal.Decimal) ([decimalSize]byte, error) {
	var out [decimalSize]byte
	coef := d.Coefficient()
	if coef.Cmp(coefficientMin) < 0 || coef.Cmp(coefficientMax) > 0 {
		return out, merr.WrapErrValueOutOfRange("decimal coefficient", d.String())
	}
	binary.LittleEndian.PutUint32(out[:4], uint32(d.Exponent()))
	if coef.Sign() >= 0 {
		coef.FillBytes(out[4:])
		return out, nil
	}
	// 负数取 2^128 + coef 的补码表示。
	mod := new(big.Int).Lsh(big.NewInt(1), coefficientSize*8)
	mod.Add(mod, coef).FillBytes(out[4:])
	return out, nil
}

func decodeDecimal(p []byte) decimal.Decimal {
	exp := int32(binary.LittleEndian.Uint32(p[:4]))
	coef := new(big.Int).SetBytes(p[4:decimalSize])
	if p[4]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), coefficientSize*8)
		coef.Sub(coef, mod)
	}
	return decimal.NewFromBigInt(coef, exp)
}
