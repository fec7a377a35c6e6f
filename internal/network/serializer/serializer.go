package serializer

// Serializer 抽象了网络层“对象 <-> 字节序列”的序列化能力。
//
// 调用方通过接口注入具体实现。
type Serializer interface {
	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 必须为非空指针，用于接收解码结果。
	Unmarshal(data []byte, v any) error
}
