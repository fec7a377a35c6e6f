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

package typeinfo

import "reflect"

// ScalarKind 是编解码器直接支持的标量种类。
type ScalarKind uint8

const (
	KindInvalid ScalarKind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindInt
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindUint
	KindUintptr
	KindFloat32
	KindFloat64
	KindComplex64
	KindComplex128
	KindString
	KindTime
	KindDuration
	KindUUID
	KindDecimal
)

// 线上编码宽度，-1 表示变长。
var scalarSizes = [...]int{
	KindInvalid:    0,
	KindBool:       1,
	KindInt8:       1,
	KindInt16:      2,
	KindInt32:      4,
	KindInt64:      8,
	KindInt:        8,
	KindUint8:      1,
	KindUint16:     2,
	KindUint32:     4,
	KindUint64:     8,
	KindUint:       8,
	KindUintptr:    8,
	KindFloat32:    4,
	KindFloat64:    8,
	KindComplex64:  8,
	KindComplex128: 16,
	KindString:     -1,
	KindTime:       16,
	KindDuration:   8,
	KindUUID:       16,
	KindDecimal:    20,
}

var scalarNames = [...]string{
	KindInvalid:    "invalid",
	KindBool:       "bool",
	KindInt8:       "int8",
	KindInt16:      "int16",
	KindInt32:      "int32",
	KindInt64:      "int64",
	KindInt:        "int",
	KindUint8:      "uint8",
	KindUint16:     "uint16",
	KindUint32:     "uint32",
	KindUint64:     "uint64",
	KindUint:       "uint",
	KindUintptr:    "uintptr",
	KindFloat32:    "float32",
	KindFloat64:    "float64",
	KindComplex64:  "complex64",
	KindComplex128: "complex128",
	KindString:     "string",
	KindTime:       "time",
	KindDuration:   "duration",
	KindUUID:       "uuid",
	KindDecimal:    "decimal",
}

// Size 返回定长标量的编码宽度，string 返回 -1。
func (k ScalarKind) Size() int {
	return scalarSizes[k]
}

func (k ScalarKind) String() string {
	return scalarNames[k]
}

// IsSigned 判断是否为有符号整数种类。
func (k ScalarKind) IsSigned() bool {
	return k >= KindInt8 && k <= KindInt
}

// IsUnsigned 判断是否为无符号整数种类。
func (k ScalarKind) IsUnsigned() bool {
	return k >= KindUint8 && k <= KindUintptr
}

func scalarKindOf(kind reflect.Kind) ScalarKind {
	switch kind {
	case reflect.Bool:
		return KindBool
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Int:
		return KindInt
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Uint:
		return KindUint
	case reflect.Uintptr:
		return KindUintptr
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.Complex64:
		return KindComplex64
	case reflect.Complex128:
		return KindComplex128
	case reflect.String:
		return KindString
	}
	return KindInvalid
}
