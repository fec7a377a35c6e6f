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

package conc

import (
	"fmt"

	ants "github.com/panjf2000/ants/v2"

	"github.com/lk2023060901/byteconv-go/pkg/util/hardware"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// Pool 是基于 ants 的协程池，Submit 返回可等待的 Future。
type Pool[T any] struct {
	inner *ants.Pool
	opt   *poolOption
}

// NewPool 创建容量为 cap 的协程池。
func NewPool[T any](cap int, opts ...PoolOption) *Pool[T] {
	opt := defaultPoolOption()
	for _, o := range opts {
		o(opt)
	}

	pool, err := ants.NewPool(cap, opt.antsOptions()...)
	if err != nil {
		panic(err)
	}

	return &Pool[T]{
		inner: pool,
		opt:   opt,
	}
}

// NewDefaultPool 创建容量为 CPU 核数的协程池。
func NewDefaultPool[T any]() *Pool[T] {
	return NewPool[T](hardware.GetCPUNum(), WithPreAlloc(true))
}

// Submit 提交一个任务，任务的返回值和错误通过 Future 取得。
func (pool *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := pool.inner.Submit(func() {
		defer close(future.ch)
		defer func() {
			if x := recover(); x != nil {
				future.err = fmt.Errorf("panicked with error: %v", x)
				panic(x) // 交给 ants 的 panic handler 处理
			}
		}()
		if pool.opt.preHandler != nil {
			pool.opt.preHandler()
		}
		res, err := method()
		if err != nil {
			future.err = err
		} else {
			future.value = res
		}
	})
	if err != nil {
		future.err = merr.WrapErrIoFailed(err, "submit task")
		close(future.ch)
	}
	return future
}

// Cap 返回协程池容量。
func (pool *Pool[T]) Cap() int {
	return pool.inner.Cap()
}

// Running 返回正在运行的 worker 数。
func (pool *Pool[T]) Running() int {
	return pool.inner.Running()
}

// Free 返回空闲的 worker 数。
func (pool *Pool[T]) Free() int {
	return pool.inner.Free()
}

// Release 释放协程池，之后不能再提交任务。
func (pool *Pool[T]) Release() {
	pool.inner.Release()
}

// Resize 调整协程池容量，预分配的协程池不支持调整。
func (pool *Pool[T]) Resize(size int) error {
	if pool.opt.preAlloc {
		return merr.WrapErrParameterInvalid("non-pre-allocated pool", "pre-allocated pool", "cannot resize")
	}
	if size <= 0 {
		return merr.WrapErrParameterInvalid("positive size", fmt.Sprint(size), "cannot resize")
	}
	pool.inner.Tune(size)
	return nil
}
