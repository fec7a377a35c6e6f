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

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// 装箱值（接口类型的成员或元素）在线上携带具体类型的名字，
// 读取方据此从这里找回具体类型。
var (
	nameMu      sync.RWMutex
	typesByName = make(map[string]reflect.Type)
	namesByType = make(map[reflect.Type]string)
)

func init() {
	builtins := map[string]any{
		"bool":            false,
		"int8":            int8(0),
		"int16":           int16(0),
		"int32":           int32(0),
		"int64":           int64(0),
		"int":             0,
		"uint8":           uint8(0),
		"uint16":          uint16(0),
		"uint32":          uint32(0),
		"uint64":          uint64(0),
		"uint":            uint(0),
		"uintptr":         uintptr(0),
		"float32":         float32(0),
		"float64":         float64(0),
		"complex64":       complex64(0),
		"complex128":      complex128(0),
		"string":          "",
		"[]byte":          []byte(nil),
		"time.Time":       time.Time{},
		"time.Duration":   time.Duration(0),
		"uuid.UUID":       uuid.UUID{},
		"decimal.Decimal": decimal.Decimal{},
	}
	for name, sample := range builtins {
		t := reflect.TypeOf(sample)
		typesByName[name] = t
		namesByType[t] = name
	}
}

// RegisterName 以 sample 的动态类型登记类型名。
func RegisterName(name string, sample any) error {
	return RegisterTypeName(name, reflect.TypeOf(sample))
}

// RegisterTypeName 登记类型名。同一名字只能对应一个类型，同一类型只能有一个名字。
func RegisterTypeName(name string, t reflect.Type) error {
	if t == nil {
		return merr.WrapErrParameterInvalid("type", "nil", "register name "+name)
	}
	if name == "" || len(name) > MaxNameLength {
		return merr.WrapErrMemberNameTooLong(t.String(), name, MaxNameLength)
	}

	nameMu.Lock()
	defer nameMu.Unlock()

	if existing, ok := typesByName[name]; ok {
		if existing == t {
			return nil
		}
		return merr.WrapErrDuplicateMember(existing.String(), name, "type name already registered")
	}
	if existing, ok := namesByType[t]; ok {
		return merr.WrapErrDuplicateMember(t.String(), existing, "type already has a name")
	}
	typesByName[name] = t
	namesByType[t] = name
	return nil
}

// NameOf 返回类型登记的名字。
func NameOf(t reflect.Type) (string, bool) {
	nameMu.RLock()
	defer nameMu.RUnlock()
	name, ok := namesByType[t]
	return name, ok
}

// TypeByName 返回名字对应的类型。
func TypeByName(name string) (reflect.Type, bool) {
	nameMu.RLock()
	defer nameMu.RUnlock()
	t, ok := typesByName[name]
	return t, ok
}
