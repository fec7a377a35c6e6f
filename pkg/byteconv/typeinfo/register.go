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

	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

type registration struct {
	zeroValue bool
	ctors     []ctorDef
	name      string
	err       error
}

// Option 调整类型注册信息。
type Option func(t reflect.Type, reg *registration)

// WithConstructor 为结构体注册构造函数，names 依次给出各参数对应的成员名（大小写不敏感）。
// 注册带参构造函数后，该类型不再以零值创建。
func WithConstructor(fn any, names ...string) Option {
	return func(t reflect.Type, reg *registration) {
		def, err := validateConstructor(t, fn, names)
		if err != nil {
			reg.err = merr.WrapErrInvalidConstructor(t.String(), err.Error())
			return
		}
		reg.ctors = append(reg.ctors, def)
	}
}

// WithoutZeroValue 禁止以零值创建该类型，必须提供构造函数。
func WithoutZeroValue() Option {
	return func(t reflect.Type, reg *registration) {
		reg.zeroValue = false
	}
}

// WithName 为类型注册装箱时使用的类型名。
func WithName(name string) Option {
	return func(t reflect.Type, reg *registration) {
		reg.name = name
	}
}

var (
	regMu         sync.RWMutex
	registrations = make(map[reflect.Type]*registration)
)

// Register 登记类型的构造信息，必须在该类型首次被分类之前调用，
// 否则返回 ErrTypeAlreadyResolved。重复登记会叠加构造函数。
func Register(t reflect.Type, opts ...Option) error {
	if t == nil {
		return merr.WrapErrParameterInvalid("type", "nil", "register")
	}

	regMu.Lock()
	defer regMu.Unlock()

	if IsResolved(t) {
		return merr.WrapErrTypeAlreadyResolved(t.String())
	}

	reg, ok := registrations[t]
	if !ok {
		reg = &registration{zeroValue: true}
	}
	staged := *reg
	staged.ctors = append([]ctorDef(nil), reg.ctors...)
	staged.err = nil
	for _, opt := range opts {
		opt(t, &staged)
	}
	if staged.err != nil {
		return staged.err
	}
	if staged.name != "" && staged.name != reg.name {
		if err := RegisterTypeName(staged.name, t); err != nil {
			return err
		}
	}
	registrations[t] = &staged
	return nil
}

// RegisterType 是 Register 的泛型形式。
func RegisterType[T any](opts ...Option) error {
	return Register(reflect.TypeOf((*T)(nil)).Elem(), opts...)
}

func registrationOf(t reflect.Type) *registration {
	regMu.RLock()
	defer regMu.RUnlock()
	return registrations[t]
}
