// Package llmtransport implements the LLM Transport (C1, spec §4.9): a
// grpc-backed one-shot and streaming call surface with cancellation. The
// teacher's pkg/llm/client.go wraps a protoc-generated client
// (pb.LLMServiceClient) built from a .proto file; generating that stub
// requires running protoc, which this build may never do. Instead this
// package registers a plain JSON codec with grpc so ordinary JSON-tagged Go
// structs flow over grpc.ClientConn.Invoke/NewStream without any generated
// message code — the wire framing, deadlines, and cancellation semantics
// are still genuinely grpc's, only the payload encoding differs from the
// teacher's protobuf-encoded payloads.
package llmtransport

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is registered with grpc's encoding package so Invoke/NewStream
// calls made with grpc.CallContentSubtype(CodecName) use jsonCodec instead
// of the default proto codec.
const CodecName = "eduagents-json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
