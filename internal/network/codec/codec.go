package codec

import (
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/byteconv-go/internal/network"
	"github.com/lk2023060901/byteconv-go/internal/network/framer"
	"github.com/lk2023060901/byteconv-go/internal/network/serializer"
	"github.com/lk2023060901/byteconv-go/pkg/log"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// Codec 抽象了“从业务对象到网络帧，以及从网络帧回到业务对象”的完整编解码流程。
//
// Pipeline（写出 Encode）：
//
//	msg --> serializer --> framer.WriteFrame
//
// Pipeline（读入 Decode）：
//
//	framer.ReadFrame --> serializer --> msg
//
// 返回的错误带有 network.Stage 标记，可以用 network.StageOf 取出。
type Codec interface {
	// Encode 将业务对象编码并写入到底层流。
	Encode(w io.Writer, msg any) error

	// Decode 从底层流中读取一帧报文，并解码到 msg 中（msg 为非空指针）。
	Decode(r io.Reader, msg any) error

	// DecodeRaw 从底层流中读取一帧报文，返回未反序列化的 payload。
	DecodeRaw(r io.Reader) ([]byte, error)
}

// Options 用于构造 Codec 的依赖注入参数。
type Options struct {
	Framer     framer.Framer         // 允许为 nil（内部会用默认的 LengthPrefixedFramer）
	Serializer serializer.Serializer // 必填
}

type codec struct {
	framer     framer.Framer
	serializer serializer.Serializer
}

var _ Codec = (*codec)(nil)

// New 创建一个基于给定依赖的 Codec。
func New(opts Options) (Codec, error) {
	if opts.Serializer == nil {
		return nil, merr.WrapErrParameterInvalid("serializer", "nil", "new codec")
	}
	c := &codec{
		framer:     opts.Framer,
		serializer: opts.Serializer,
	}
	if c.framer == nil {
		c.framer = framer.NewLengthPrefixedFramer(0)
	}
	return c, nil
}

// Encode 实现 Codec.Encode。
func (c *codec) Encode(w io.Writer, msg any) error {
	if msg == nil {
		return network.MarkStage(merr.WrapErrParameterInvalid("msg", "nil", "encode"), network.StageEncode)
	}
	body, err := c.serializer.Marshal(msg)
	if err != nil {
		return network.MarkStage(err, network.StageEncode)
	}
	if err := c.framer.WriteFrame(w, body); err != nil {
		return network.MarkStage(err, network.StageSend)
	}
	return nil
}

// DecodeRaw 实现 Codec.DecodeRaw。流在帧边界处结束时返回 io.EOF。
func (c *codec) DecodeRaw(r io.Reader) ([]byte, error) {
	body, err := c.framer.ReadFrame(r)
	if err == io.EOF {
		return nil, err
	}
	if err != nil {
		return nil, network.MarkStage(err, network.StageRecv)
	}
	return body, nil
}

// Decode 实现 Codec.Decode。
func (c *codec) Decode(r io.Reader, msg any) error {
	body, err := c.DecodeRaw(r)
	if err != nil {
		return err
	}
	if err := c.serializer.Unmarshal(body, msg); err != nil {
		return network.MarkStage(err, network.StageDecode)
	}
	return nil
}

// Conn 把 Codec 绑定到一条双向流上。
// Send 与 Recv 各自串行化，可以分别由不同的 goroutine 调用。
// 失败以 Debug 级别记录到绑定的 Logger。
type Conn struct {
	log.Binder

	rw    io.ReadWriter
	codec Codec

	sendMu sync.Mutex
	recvMu sync.Mutex
}

func NewConn(rw io.ReadWriter, c Codec) *Conn {
	return &Conn{rw: rw, codec: c}
}

// Send 编码 msg 并作为一帧写出。
func (c *Conn) Send(msg any) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.codec.Encode(c.rw, msg); err != nil {
		c.Logger().Debug("send failed", zap.String("stage", string(network.StageOf(err))), zap.Error(err))
		return err
	}
	return nil
}

// Recv 读取一帧并解码到 msg。
func (c *Conn) Recv(msg any) error {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()
	err := c.codec.Decode(c.rw, msg)
	if err != nil && err != io.EOF {
		c.Logger().Debug("recv failed", zap.String("stage", string(network.StageOf(err))), zap.Error(err))
	}
	return err
}

// Close 在底层流实现了 io.Closer 时关闭它。
func (c *Conn) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
