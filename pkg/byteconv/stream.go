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
	"context"
	"io"
	"reflect"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/lk2023060901/byteconv-go/internal/pool/ringbuffer"
	"github.com/lk2023060901/byteconv-go/pkg/log"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

const tracerName = "byteconv"

// SerializeStream 把 v 分块编码写入 w，每块至多 ChunkSize 字节。
func SerializeStream[T any](ctx context.Context, w io.Writer, v T, opts ...Option) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "SerializeStream")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	enc, err := newEncoder(reflect.ValueOf(&v).Elem(), opts)
	if err != nil {
		return err
	}
	ctx = log.WithFields(ctx, log.FieldType(reflect.TypeOf(&v).Elem()))
	logger := log.Ctx(ctx)

	chunk := make([]byte, enc.opts.ChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, done, err := enc.Encode(chunk)
		if err != nil {
			return err
		}
		if n > 0 {
			if _, err := w.Write(chunk[:n]); err != nil {
				return merr.WrapErrIoFailed(err, "write stream")
			}
		}
		if done {
			logger.Debug("stream serialized", zap.Int64("bytes", enc.Written()))
			return nil
		}
	}
}

// DeserializeStream 从 r 分块读取并解码出 T。
//
// 读取按 ChunkSize 进行，可能读过值的末尾；多读的字节被丢弃，
// 因此 r 中值之后的数据不能再由调用方读取。需要精确边界时请使用 Decoder。
func DeserializeStream[T any](ctx context.Context, r io.Reader, opts ...Option) (ret T, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "DeserializeStream")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	dec, err := NewDecoder(reflect.TypeOf(&ret).Elem(), opts...)
	if err != nil {
		return ret, err
	}
	ctx = log.WithFields(ctx, log.FieldType(dec.typ))
	logger := log.Ctx(ctx)

	rb := ringbuffer.Get()
	defer ringbuffer.Put(rb)

	eof := false
	for {
		if err := ctx.Err(); err != nil {
			return ret, err
		}
		if !rb.IsEmpty() {
			rb.Compact()
			head, _ := rb.Peek(0)
			n, done, err := dec.Decode(head)
			rb.Discard(n)
			if err != nil {
				return ret, err
			}
			if done {
				if rest := rb.Buffered(); rest > 0 {
					logger.Debug("discard bytes read past value end", zap.Int("bytes", rest))
				}
				logger.Debug("stream deserialized", zap.Int64("bytes", dec.Consumed()))
				reflect.ValueOf(&ret).Elem().Set(dec.Value())
				return ret, nil
			}
			logger.RatedDebug(1, "decoder suspended", zap.Int("needed", dec.Needed()))
		}
		if eof {
			return ret, merr.WrapErrUnexpectedEOF(dec.Needed())
		}

		// 返回 0 字节且没有错误的 Reader 交由下一轮重试，其间会检查 ctx。
		if _, err := rb.Fill(r, max(dec.opts.ChunkSize, dec.Needed())); err != nil {
			if !errors.Is(err, io.EOF) {
				return ret, merr.WrapErrIoFailed(err, "read stream")
			}
			eof = true
		}
	}
}
