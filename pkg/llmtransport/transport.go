package llmtransport

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// CallOptions mirror the teacher's client-configured model/temperature/
// max-tokens knobs (pkg/llm/client.go), but are passed per-call here instead
// of fixed at client construction, since different writer groups may want
// different budgets.
type CallOptions struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// generateRequest/generateResponse are the JSON-tagged wire types exchanged
// with the LLM service, standing in for the teacher's protobuf
// ThinkingRequest/ThinkingChunk messages.
type generateRequest struct {
	Prompt          string  `json:"prompt"`
	Model           string  `json:"model,omitempty"`
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int32   `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Content string `json:"content"`
}

type streamChunk struct {
	Content    string `json:"content"`
	IsComplete bool   `json:"isComplete"`
}

// Caller is the interface the Writer depends on, satisfied by *Transport in
// production and by a hand-rolled fake in tests — the Writer never dials a
// real connection in a unit test.
type Caller interface {
	CallOne(ctx context.Context, prompt string, opts CallOptions) (string, error)
	CallStreaming(ctx context.Context, req StreamRequest) error
}

// Transport issues prompts against the LLM service: one-shot (CallOne) and
// streaming with delimited items (CallStreaming). Neither call retries —
// retries are the orchestration layer's responsibility (spec §4.9).
type Transport struct {
	conn *grpc.ClientConn
	log  *slog.Logger
}

// Dial connects to the LLM service at addr using insecure transport
// credentials, matching the teacher's NewClient (pkg/llm/client.go). It
// accepts no extra grpc.DialOption values, so TLS cannot be configured
// through it.
func Dial(addr string, logger *slog.Logger) (*Transport, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("llmtransport: failed to connect to LLM service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{conn: conn, log: logger}, nil
}

// Close closes the underlying connection.
func (t *Transport) Close() error { return t.conn.Close() }

const (
	generateMethod       = "/eduagents.llm.LLMService/Generate"
	generateStreamMethod = "/eduagents.llm.LLMService/GenerateStream"
)

// CallOne issues a single non-streaming prompt and returns the full
// response text (spec §4.9's `callOne`).
func (t *Transport) CallOne(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	req := &generateRequest{Prompt: prompt, Model: opts.Model, Temperature: opts.Temperature, MaxOutputTokens: opts.MaxOutputTokens}
	resp := &generateResponse{}
	if err := t.conn.Invoke(ctx, generateMethod, req, resp, grpc.CallContentSubtype(CodecName)); err != nil {
		t.log.Warn("llmtransport: callOne failed", "model", opts.Model, "error", err)
		return "", fmt.Errorf("llmtransport: callOne failed: %w", err)
	}
	return resp.Content, nil
}

// StreamRequest carries the arguments to CallStreaming.
type StreamRequest struct {
	Prompt string
	Opts   CallOptions
	// OnItem fires once per server-framed chunk marked complete, in arrival
	// order. The chunk is not split on the end-of-item sentinel, so one call
	// may carry several blocks or part of one.
	OnItem func(block string)
	// OnTruncation fires exactly once if the stream is cut mid-block,
	// carrying the undelivered leftover text.
	OnTruncation func(leftover string)
}

var streamDesc = &grpc.StreamDesc{StreamName: "GenerateStream", ServerStreams: true}

// CallStreaming issues a streaming prompt (spec §4.9's `callStreaming`).
// The transport itself does not split on the end-of-item sentinel — it
// simply forwards raw content chunks to onItem as they complete server-side
// framing, or fires onTruncation with whatever content remains buffered if
// the stream ends with an incomplete chunk. Sentinel splitting within a
// chunk's content is the Chunk Parser's job (C2), layered by the Writer.
func (t *Transport) CallStreaming(ctx context.Context, req StreamRequest) error {
	clientStream, err := t.conn.NewStream(ctx, streamDesc, generateStreamMethod, grpc.CallContentSubtype(CodecName))
	if err != nil {
		t.log.Error("llmtransport: failed to open stream", "model", req.Opts.Model, "error", err)
		return fmt.Errorf("llmtransport: failed to open stream: %w", err)
	}

	msg := &generateRequest{Prompt: req.Prompt, Model: req.Opts.Model, Temperature: req.Opts.Temperature, MaxOutputTokens: req.Opts.MaxOutputTokens}
	if err := clientStream.SendMsg(msg); err != nil {
		return fmt.Errorf("llmtransport: failed to send stream request: %w", err)
	}
	if err := clientStream.CloseSend(); err != nil {
		return fmt.Errorf("llmtransport: failed to close send side: %w", err)
	}

	var pending string
	for {
		chunk := &streamChunk{}
		err := clientStream.RecvMsg(chunk)
		if err == io.EOF {
			if pending != "" && req.OnTruncation != nil {
				req.OnTruncation(pending)
			}
			return nil
		}
		if err != nil {
			t.log.Warn("llmtransport: stream receive failed, delivering buffered content as truncated", "error", err)
			if pending != "" && req.OnTruncation != nil {
				req.OnTruncation(pending)
			}
			return fmt.Errorf("llmtransport: stream receive failed: %w", err)
		}

		pending += chunk.Content
		if chunk.IsComplete {
			if req.OnItem != nil {
				req.OnItem(pending)
			}
			pending = ""
		}

		select {
		case <-ctx.Done():
			if pending != "" && req.OnTruncation != nil {
				req.OnTruncation(pending)
			}
			return ctx.Err()
		default:
		}
	}
}
