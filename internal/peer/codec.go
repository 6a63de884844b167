package peer

import (
	"encoding/json"
)

// jsonCodec 节点间 RPC 使用 JSON 编码，消息结构见 messages.go
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}
