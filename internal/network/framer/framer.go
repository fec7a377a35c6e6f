package framer

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// Framer 抽象了在字节流上划分消息边界的能力。
//
// 约定：一帧数据的格式为 4 字节大端无符号整型（后续 payload 的长度）+ payload。
type Framer interface {
	// WriteFrame 将 payload 打包为一帧并写入到 w 中。
	WriteFrame(w io.Writer, payload []byte) error

	// ReadFrame 从 r 中读取一帧数据，返回的 payload 归调用方所有。
	ReadFrame(r io.Reader) ([]byte, error)
}

// HeaderSize 是帧头长度。
const HeaderSize = 4

const defaultMaxFrameSize uint32 = 16 * 1024 * 1024 // 16MB

// LengthPrefixedFramer 使用长度前缀（4 字节大端）作为帧边界。
// 适用于基于流的连接（如 TCP、管道、文件）。
type LengthPrefixedFramer struct {
	// MaxFrameSize 为允许的最大 payload 长度，单位字节。
	// 为 0 时使用默认值 defaultMaxFrameSize。
	MaxFrameSize uint32
}

var _ Framer = (*LengthPrefixedFramer)(nil)

// NewLengthPrefixedFramer 创建一个长度前缀帧编码器。
// maxFrameSize 为 0 时使用默认值。
func NewLengthPrefixedFramer(maxFrameSize uint32) *LengthPrefixedFramer {
	if maxFrameSize == 0 {
		maxFrameSize = defaultMaxFrameSize
	}
	return &LengthPrefixedFramer{
		MaxFrameSize: maxFrameSize,
	}
}

// WriteFrame 将 payload 编码为长度前缀帧并写入。帧头与 payload 在一次 Write 中写出。
func (f *LengthPrefixedFramer) WriteFrame(w io.Writer, payload []byte) error {
	if w == nil {
		return merr.WrapErrParameterInvalid("writer", "nil", "write frame")
	}
	if uint64(len(payload)) > uint64(f.effectiveMaxSize()) {
		return merr.WrapErrMalformedLength("frame", int64(len(payload)), int64(f.effectiveMaxSize()))
	}

	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[:HeaderSize], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)

	if _, err := w.Write(buf); err != nil {
		return merr.WrapErrIoFailed(err, "write frame")
	}
	return nil
}

// ReadFrame 从流中读取一帧数据。
// 在帧头之前遇到流结束时原样返回 io.EOF，帧中途结束返回 ErrUnexpectedEOF。
func (f *LengthPrefixedFramer) ReadFrame(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, merr.WrapErrParameterInvalid("reader", "nil", "read frame")
	}

	var header [HeaderSize]byte
	if n, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, merr.WrapErrUnexpectedEOF(HeaderSize - n)
		}
		return nil, merr.WrapErrIoFailed(err, "read frame header")
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > f.effectiveMaxSize() {
		return nil, merr.WrapErrMalformedLength("frame", int64(length), int64(f.effectiveMaxSize()))
	}

	payload := make([]byte, int(length))
	if n, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, merr.WrapErrUnexpectedEOF(int(length) - n)
		}
		return nil, merr.WrapErrIoFailed(err, "read frame body")
	}
	return payload, nil
}

func (f *LengthPrefixedFramer) effectiveMaxSize() uint32 {
	if f == nil || f.MaxFrameSize == 0 {
		return defaultMaxFrameSize
	}
	return f.MaxFrameSize
}
