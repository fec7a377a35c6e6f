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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

// ErrorType 描述错误所属的类别。
type ErrorType int32

const (
	SystemError   ErrorType = 0
	InputError    ErrorType = 1
	SetupError    ErrorType = 2 // 类型元数据/转换器构建阶段的错误，一次调用中只会出现在处理任何数据之前
	ProtocolError ErrorType = 3 // 读取阶段发现的数据格式错误
)

var ErrorTypeName = map[ErrorType]string{
	SystemError:   "system_error",
	InputError:    "input_error",
	SetupError:    "setup_error",
	ProtocolError: "protocol_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Setup related
	ErrUnsupportedType     = newByteconvError("unsupported type", 100, SetupError)
	ErrTooManyMembers      = newByteconvError("too many members for index width", 101, SetupError)
	ErrMissingConstructor  = newByteconvError("no usable constructor", 102, SetupError)
	ErrDuplicateMember     = newByteconvError("duplicate member", 103, SetupError)
	ErrAmbiguousType       = newByteconvError("ambiguous type requires boxed type info", 104, SetupError)
	ErrInvalidConstructor  = newByteconvError("invalid constructor", 105, SetupError)
	ErrTypeAlreadyResolved = newByteconvError("type already resolved", 106, SetupError)
	ErrMemberNameTooLong   = newByteconvError("member name too long", 107, SetupError)
	ErrInvalidOption       = newByteconvError("invalid option", 108, SetupError)

	// Protocol related
	ErrIndexWidthMismatch = newByteconvError("index width mismatch", 200, ProtocolError)
	ErrAddressingMismatch = newByteconvError("addressing mode mismatch", 201, ProtocolError)
	ErrMalformedLength    = newByteconvError("malformed length prefix", 202, ProtocolError)
	ErrUnexpectedEOF      = newByteconvError("unexpected end of data", 203, ProtocolError)
	ErrTrailingData       = newByteconvError("trailing data after value", 204, ProtocolError)
	ErrMaxDepthExceeded   = newByteconvError("max nesting depth exceeded", 205, ProtocolError)
	ErrUnknownTypeName    = newByteconvError("unknown boxed type name", 206, ProtocolError)
	ErrValueOutOfRange    = newByteconvError("value out of range", 207, ProtocolError)
	ErrConstructorFailed  = newByteconvError("constructor failed", 208, ProtocolError)

	// IO related
	ErrIoFailed       = newByteconvError("IO failed", 300, SystemError)
	ErrBufferTooSmall = newByteconvError("buffer too small", 301, InputError)

	// Parameter related
	ErrParameterInvalid = newByteconvError("invalid parameter", 400, InputError)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to byteconvError
	errUnexpected = newByteconvError("unexpected error", (1<<16)-1, SystemError)
)

type errorOption func(*byteconvError)

func WithDetail(detail string) errorOption {
	return func(err *byteconvError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *byteconvError) {
		err.errType = etype
	}
}

type byteconvError struct {
	msg     string
	detail  string
	errCode int32
	errType ErrorType
}

func newByteconvError(msg string, code int32, etype ErrorType, options ...errorOption) byteconvError {
	err := byteconvError{
		msg:     msg,
		detail:  msg,
		errCode: code,
		errType: etype,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e byteconvError) code() int32 {
	return e.errCode
}

func (e byteconvError) Error() string {
	return e.msg
}

func (e byteconvError) Detail() string {
	return e.detail
}

func (e byteconvError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(byteconvError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
