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
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/byteconv-go/pkg/log"
	"github.com/lk2023060901/byteconv-go/pkg/metrics"
	"github.com/lk2023060901/byteconv-go/pkg/util/conc"
)

var (
	batchPoolOnce sync.Once
	batchPool     *conc.Pool[[]byte]
)

func getBatchPool() *conc.Pool[[]byte] {
	batchPoolOnce.Do(func() {
		batchPool = conc.NewDefaultPool[[]byte]()
		log.Info("byteconv batch pool initialized", zap.Int("cap", batchPool.Cap()))
	})
	return batchPool
}

// SerializeBatch 在协程池上并发编码一组相互独立的值，结果与 values 一一对应。
// 每个值按其动态类型编码，可用 Deserialize 以同一类型解出。任一值编码失败时返回该错误。
func SerializeBatch(ctx context.Context, values []any, opts ...Option) ([][]byte, error) {
	if _, err := newOptions(opts...); err != nil {
		return nil, err
	}
	pool := getBatchPool()
	futures := make([]*conc.Future[[]byte], 0, len(values))
	for i, v := range values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		metrics.BatchTasks.WithLabelValues(metrics.EncodeLabel).Inc()
		futures = append(futures, pool.Submit(func() ([]byte, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			enc, err := NewEncoder(v, opts...)
			if err != nil {
				return nil, errors.Wrapf(err, "serialize batch item %d", i)
			}
			data, err := enc.EncodeAll()
			if err != nil {
				return nil, errors.Wrapf(err, "serialize batch item %d", i)
			}
			return data, nil
		}))
	}

	ret := make([][]byte, len(values))
	for i, f := range futures {
		data, err := f.AwaitContext(ctx)
		if err != nil {
			return nil, err
		}
		ret[i] = data
	}
	return ret, nil
}
