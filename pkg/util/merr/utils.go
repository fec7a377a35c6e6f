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

package merr

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	var specificErr byteconvError
	if errors.As(err, &specificErr) {
		return specificErr.code()
	}
	if errors.Is(err, context.Canceled) {
		return CanceledCode
	} else if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutCode
	}
	return errUnexpected.code()
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// GetErrorType 返回错误链中第一个 byteconvError 的类别，找不到时按系统错误处理。
func GetErrorType(err error) ErrorType {
	var specificErr byteconvError
	if errors.As(err, &specificErr) {
		return specificErr.errType
	}
	return SystemError
}

// IsSetupError 判断错误是否发生在类型元数据/转换器构建阶段。
func IsSetupError(err error) bool {
	return err != nil && GetErrorType(err) == SetupError
}

// IsProtocolError 判断错误是否为读取数据时发现的格式错误。
func IsProtocolError(err error) bool {
	return err != nil && GetErrorType(err) == ProtocolError
}

// Setup 相关错误封装。
func WrapErrUnsupportedType(typeName string, member string, msg ...string) error {
	err := wrapFields(ErrUnsupportedType,
		value("type", typeName),
		value("member", member),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTooManyMembers(typeName string, index int, limit int) error {
	return wrapFields(ErrTooManyMembers,
		value("type", typeName),
		bound("index", index, 0, limit),
	)
}

func WrapErrMissingConstructor(typeName string, msg ...string) error {
	err := wrapFields(ErrMissingConstructor, value("type", typeName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrDuplicateMember(typeName string, member string, msg ...string) error {
	err := wrapFields(ErrDuplicateMember,
		value("type", typeName),
		value("member", member),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrAmbiguousType(typeName string) error {
	return wrapFieldsWithDesc(ErrAmbiguousType, "enable boxed type info to serialize interface values",
		value("type", typeName),
	)
}

func WrapErrInvalidConstructor(typeName string, reason string) error {
	return wrapFieldsWithDesc(ErrInvalidConstructor, reason, value("type", typeName))
}

func WrapErrTypeAlreadyResolved(typeName string) error {
	return wrapFields(ErrTypeAlreadyResolved, value("type", typeName))
}

func WrapErrMemberNameTooLong(typeName string, member string, limit int) error {
	return wrapFields(ErrMemberNameTooLong,
		value("type", typeName),
		bound("len(member)", len(member), 1, limit),
	)
}

func WrapErrInvalidOption(name string, val any) error {
	return wrapFields(ErrInvalidOption, value(name, val))
}

// Protocol 相关错误封装。
func WrapErrIndexWidthMismatch(written, configured int) error {
	return wrapFieldsWithDesc(ErrIndexWidthMismatch, "payload index width differs from reader configuration",
		value("written", written),
		value("configured", configured),
	)
}

func WrapErrAddressingMismatch(writtenByName, configuredByName bool) error {
	return wrapFields(ErrAddressingMismatch,
		value("writtenByName", writtenByName),
		value("configuredByName", configuredByName),
	)
}

func WrapErrMalformedLength(what string, length int64, limit int64) error {
	return wrapFields(ErrMalformedLength,
		value("field", what),
		bound("length", length, 0, limit),
	)
}

func WrapErrUnexpectedEOF(needed int) error {
	return wrapFields(ErrUnexpectedEOF, value("needed", needed))
}

func WrapErrTrailingData(n int) error {
	return wrapFields(ErrTrailingData, value("bytes", n))
}

func WrapErrMaxDepthExceeded(depth int) error {
	return wrapFields(ErrMaxDepthExceeded, value("depth", depth))
}

func WrapErrUnknownTypeName(name string) error {
	return wrapFields(ErrUnknownTypeName, value("name", name))
}

func WrapErrValueOutOfRange(what string, val any) error {
	return wrapFields(ErrValueOutOfRange, value(what, val))
}

func WrapErrConstructorFailed(typeName string, cause error) error {
	return Combine(cause, wrapFields(ErrConstructorFailed, value("type", typeName)))
}

// IO 相关错误封装。
func WrapErrIoFailed(cause error, msg ...string) error {
	err := errors.Wrap(ErrIoFailed, cause.Error())
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrBufferTooSmall(size int, minSize int) error {
	return wrapFields(ErrBufferTooSmall, bound("size", size, minSize, "inf"))
}

// Parameter 相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err byteconvError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err byteconvError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
