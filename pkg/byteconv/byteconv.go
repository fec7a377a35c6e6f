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

// Package byteconv 实现一种可恢复的二进制对象编解码。
//
// 编码格式为一个头部字节（记录寻址方式、索引宽度、是否携带装箱类型信息），
// 随后是根值的编码。所有定长数值均为小端序。
// Encoder/Decoder 可以在任意字节边界挂起并在补充数据（或空间）后继续，
// 因此可以直接对接分块的流式 I/O。
package byteconv

import "reflect"

// Serialize 把 v 编码为一段完整的字节。
func Serialize[T any](v T, opts ...Option) ([]byte, error) {
	enc, err := newEncoder(reflect.ValueOf(&v).Elem(), opts)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll()
}

// Deserialize 从一段完整的字节中解码出 T。
// 数据不完整返回 ErrUnexpectedEOF，值之后还有剩余字节返回 ErrTrailingData。
func Deserialize[T any](data []byte, opts ...Option) (T, error) {
	var ret T
	dec, err := NewDecoder(reflect.TypeOf(&ret).Elem(), opts...)
	if err != nil {
		return ret, err
	}
	v, err := dec.DecodeAll(data)
	if err != nil {
		return ret, err
	}
	reflect.ValueOf(&ret).Elem().Set(v)
	return ret, nil
}
