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

// Package typeinfo 负责对运行时类型做一次性分类，并进程级缓存结果。
//
// 分类结果 TypeDetail 一经发布就不再修改，多个 goroutine 可以无锁共享。
package typeinfo

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
	"github.com/lk2023060901/byteconv-go/pkg/util/typeutil"
)

// Category 是类型在编解码器眼中的形状。
type Category uint8

const (
	CategoryInvalid Category = iota
	CategoryScalar
	CategoryNullable
	CategoryEnum
	CategoryByteArray
	CategoryCollection
	CategoryMap
	CategoryObject
	CategoryInterface
)

var categoryNames = map[Category]string{
	CategoryInvalid:    "invalid",
	CategoryScalar:     "scalar",
	CategoryNullable:   "nullable",
	CategoryEnum:       "enum",
	CategoryByteArray:  "byte_array",
	CategoryCollection: "collection",
	CategoryMap:        "map",
	CategoryObject:     "object",
	CategoryInterface:  "interface",
}

func (c Category) String() string {
	return categoryNames[c]
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
	decimalType  = reflect.TypeOf(decimal.Decimal{})
	byteType     = reflect.TypeOf(byte(0))
)

// TypeDetail 汇总一个类型编解码所需的全部元数据。
// 各字段只在对应的 Category 下有意义。
type TypeDetail struct {
	Type     reflect.Type
	Category Category

	// Scalar 和 Enum：标量种类（Enum 为其底层整数种类）。
	Scalar ScalarKind

	// Nullable、Collection、Map：元素类型（Map 为 value 类型）。
	Elem reflect.Type
	// Map：key 类型。
	Key reflect.Type
	// Collection、ByteArray：定长数组长度，切片为 -1。
	Len int
	// Map：value 为空结构体时按集合处理，只编码 key。
	IsSet bool

	// Object：按声明顺序排列的成员。
	Members []*Member
	// Object：按线上索引（考虑 index 覆盖）升序排列的成员。
	ByIndex []*Member
	// Object：名字到成员的映射。
	ByName map[string]*Member

	// Object：注册的构造函数，按注册顺序排列。
	Constructors []*Constructor
	// Object：选中的构造函数，为空表示直接使用零值。
	Creator *Constructor
	// Object：是否允许以零值直接创建。
	ZeroValue bool
}

// IsArray 判断 Collection/ByteArray 是否为定长数组。
func (d *TypeDetail) IsArray() bool {
	return d.Len >= 0
}

// Collect 表示读取时需要先收集成员值，再调用带参构造函数。
func (d *TypeDetail) Collect() bool {
	return d.Creator != nil && len(d.Creator.Params) > 0
}

// MaxIndex 返回成员线上索引的最大值，ignoreOverrides 为 true 时按声明顺序计算。
// 没有成员时返回 -1。
func (d *TypeDetail) MaxIndex(ignoreOverrides bool) int {
	if len(d.Members) == 0 {
		return -1
	}
	if ignoreOverrides {
		return len(d.Members) - 1
	}
	return d.ByIndex[len(d.ByIndex)-1].Index
}

var details = typeutil.NewConcurrentMap[reflect.Type, *TypeDetail]()

// Get 返回 t 的分类结果。首次访问时计算，成功的结果进程内缓存，失败不缓存。
func Get(t reflect.Type) (*TypeDetail, error) {
	if t == nil {
		return nil, merr.WrapErrUnsupportedType("<nil>", "")
	}
	if d, ok := details.Get(t); ok {
		return d, nil
	}
	d, err := classify(t)
	if err != nil {
		return nil, err
	}
	d, _ = details.GetOrInsert(t, d)
	return d, nil
}

// IsResolved 判断 t 是否已经被分类过。
func IsResolved(t reflect.Type) bool {
	_, ok := details.Get(t)
	return ok
}

func classify(t reflect.Type) (*TypeDetail, error) {
	d := &TypeDetail{Type: t, Len: -1}

	switch t {
	case timeType:
		d.Category, d.Scalar = CategoryScalar, KindTime
		return d, nil
	case durationType:
		d.Category, d.Scalar = CategoryScalar, KindDuration
		return d, nil
	case uuidType:
		d.Category, d.Scalar = CategoryScalar, KindUUID
		return d, nil
	case decimalType:
		d.Category, d.Scalar = CategoryScalar, KindDecimal
		return d, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		d.Category = CategoryNullable
		d.Elem = t.Elem()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		d.Category = CategoryScalar
		if t.PkgPath() != "" {
			d.Category = CategoryEnum
		}
		d.Scalar = scalarKindOf(t.Kind())
	case reflect.Bool, reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128, reflect.String:
		d.Category = CategoryScalar
		d.Scalar = scalarKindOf(t.Kind())
	case reflect.Slice:
		d.Elem = t.Elem()
		d.Category = CategoryCollection
		if d.Elem == byteType {
			d.Category = CategoryByteArray
		}
	case reflect.Array:
		d.Elem = t.Elem()
		d.Len = t.Len()
		d.Category = CategoryCollection
		if d.Elem == byteType {
			d.Category = CategoryByteArray
		}
	case reflect.Map:
		d.Category = CategoryMap
		d.Key = t.Key()
		d.Elem = t.Elem()
		d.IsSet = d.Elem.Kind() == reflect.Struct && d.Elem.NumField() == 0
	case reflect.Struct:
		d.Category = CategoryObject
		if err := resolveObject(d); err != nil {
			return nil, err
		}
	case reflect.Interface:
		d.Category = CategoryInterface
	default:
		return nil, merr.WrapErrUnsupportedType(t.String(), "", "kind "+t.Kind().String()+" cannot be serialized")
	}

	if d.Category != CategoryObject {
		if reg := registrationOf(t); reg != nil && len(reg.ctors) > 0 {
			return nil, merr.WrapErrInvalidConstructor(t.String(), "constructors are only supported for struct types")
		}
	}
	return d, nil
}

func resolveObject(d *TypeDetail) error {
	members, err := resolveMembers(d.Type)
	if err != nil {
		return err
	}
	d.Members = members
	d.ByIndex = sortByIndex(members)
	d.ByName = make(map[string]*Member, len(members))
	for _, m := range members {
		d.ByName[m.Name] = m
	}

	d.ZeroValue = true
	reg := registrationOf(d.Type)
	if reg != nil {
		d.ZeroValue = reg.zeroValue
		d.Constructors = bindConstructors(reg.ctors, members)
	}
	d.Creator = selectCreator(d.Constructors)
	// 注册了构造函数的类型不再以零值创建。
	if d.Creator != nil {
		d.ZeroValue = false
	}
	if d.Creator == nil && !d.ZeroValue {
		return merr.WrapErrMissingConstructor(d.Type.String(), "zero value creation is disabled and no constructor is registered")
	}
	return nil
}
