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
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"

	"github.com/lk2023060901/byteconv-go/pkg/util/hardware"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

type PoolSuite struct {
	suite.Suite
}

func (s *PoolSuite) TestSubmit() {
	var pre atomic.Int32
	pool := NewPool[int](4, WithPreHandler(func() { pre.Inc() }), WithExpiryDuration(time.Minute))
	defer pool.Release()

	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	s.NoError(AwaitAll(futures...))
	for i, f := range futures {
		s.Equal(i*i, f.Value())
		s.True(f.OK())
	}
	s.EqualValues(10, pre.Load())
	s.Equal(4, pool.Cap())
	s.LessOrEqual(pool.Running(), 4)
}

func (s *PoolSuite) TestError() {
	pool := NewPool[string](2)
	defer pool.Release()

	boom := errors.New("boom")
	ok := pool.Submit(func() (string, error) { return "ok", nil })
	failed := pool.Submit(func() (string, error) { return "", boom })

	err := AwaitAll(ok, failed)
	s.ErrorIs(err, boom)
	s.False(failed.OK())
	s.ErrorIs(failed.Err(), boom)

	v, err := ok.Await()
	s.NoError(err)
	s.Equal("ok", v)
}

func (s *PoolSuite) TestPanic() {
	pool := NewPool[int](1, WithConcealPanic(true))
	defer pool.Release()

	f := pool.Submit(func() (int, error) {
		panic("unreachable state")
	})
	<-f.Inner()
	s.Error(f.Err())
	s.Contains(f.Err().Error(), "unreachable state")
}

func (s *PoolSuite) TestAwaitContext() {
	release := make(chan struct{})
	f := Go(func() (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.AwaitContext(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)

	close(release)
	v, err := f.AwaitContext(context.Background())
	s.NoError(err)
	s.Equal(1, v)
}

func (s *PoolSuite) TestResize() {
	pool := NewPool[int](2)
	defer pool.Release()
	s.NoError(pool.Resize(8))
	s.Equal(8, pool.Cap())
	err := pool.Resize(-3)
	s.ErrorIs(err, merr.ErrParameterInvalid)
	s.Contains(err.Error(), "-3")
	s.Equal(8, pool.Cap())

	pre := NewDefaultPool[int]()
	defer pre.Release()
	s.Equal(hardware.GetCPUNum(), pre.Cap())
	s.ErrorIs(pre.Resize(4), merr.ErrParameterInvalid)
}

func (s *PoolSuite) TestNonBlocking() {
	pool := NewPool[int](1, WithNonBlocking(true))
	defer pool.Release()

	release := make(chan struct{})
	first := pool.Submit(func() (int, error) {
		<-release
		return 1, nil
	})
	s.Eventually(func() bool { return pool.Free() == 0 }, time.Second, time.Millisecond)

	second := pool.Submit(func() (int, error) { return 2, nil })
	s.ErrorIs(second.Err(), merr.ErrIoFailed)

	close(release)
	s.Equal(1, first.Value())
}

func TestPool(t *testing.T) {
	suite.Run(t, new(PoolSuite))
}
