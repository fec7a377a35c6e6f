package network

import "github.com/cockroachdb/errors"

// Stage 表示消息收发链路中的处理阶段。
//
// 主要用于在错误上标记发生的位置，便于日志与排查。
type Stage string

const (
	StageEncode Stage = "encode" // 业务对象 -> payload
	StageSend   Stage = "send"   // payload -> 帧 -> 底层流
	StageRecv   Stage = "recv"   // 底层流 -> 帧 -> payload
	StageDecode Stage = "decode" // payload -> 业务对象
)

// 统一的错误码常量，作为日志/监控中稳定的字符串。
const (
	ErrCodeEncodeFailed = "network:encode_failed"
	ErrCodeSendFailed   = "network:send_failed"
	ErrCodeRecvFailed   = "network:recv_failed"
	ErrCodeDecodeFailed = "network:decode_failed"
)

var (
	// ErrEncodeFailed 表示在将业务对象编码为 payload 时发生错误。
	ErrEncodeFailed = errors.New(ErrCodeEncodeFailed)

	// ErrSendFailed 表示在写出帧时发生错误。
	ErrSendFailed = errors.New(ErrCodeSendFailed)

	// ErrRecvFailed 表示在读取帧时发生错误。
	ErrRecvFailed = errors.New(ErrCodeRecvFailed)

	// ErrDecodeFailed 表示在将 payload 解码为业务对象时发生错误。
	ErrDecodeFailed = errors.New(ErrCodeDecodeFailed)
)

var stageErrors = map[Stage]error{
	StageEncode: ErrEncodeFailed,
	StageSend:   ErrSendFailed,
	StageRecv:   ErrRecvFailed,
	StageDecode: ErrDecodeFailed,
}

// MarkStage 为 err 附加阶段标记，errors.Is 对原错误与阶段错误都成立。
func MarkStage(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	ref, ok := stageErrors[stage]
	if !ok {
		return err
	}
	return errors.Mark(errors.Wrap(err, string(stage)), ref)
}

// StageOf 返回 err 上标记的阶段，没有标记时返回空串。
func StageOf(err error) Stage {
	for stage, ref := range stageErrors {
		if errors.Is(err, ref) {
			return stage
		}
	}
	return ""
}
