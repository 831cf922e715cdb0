package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gatestack-labs/sqlgate/internal/gateway"
)

// Options tunes the server's execution limits. Zero values fall back to
// the defaults below.
type Options struct {
	// RowLimit is the default row cap for execute_query when the caller
	// does not pass one.
	RowLimit int
	// ResourceRowCap is the hard row cap applied to sql://query resources.
	ResourceRowCap int
	// QueryTimeout bounds each statement executed on behalf of a request.
	QueryTimeout time.Duration
}

const (
	defaultRowLimit       = 100
	defaultResourceRowCap = 20
	defaultQueryTimeout   = 30 * time.Second
)

func (o Options) withDefaults() Options {
	if o.RowLimit <= 0 {
		o.RowLimit = defaultRowLimit
	}
	if o.ResourceRowCap <= 0 {
		o.ResourceRowCap = defaultResourceRowCap
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = defaultQueryTimeout
	}
	return o
}

// Server speaks MCP over a line-delimited JSON-RPC stream. Requests are
// handled one at a time in arrival order.
type Server struct {
	registry *gateway.Registry
	opts     Options
	version  string
	logger   *slog.Logger

	in  io.Reader
	out io.Writer

	mu          sync.Mutex // guards out
	initialized bool
}

// NewServer wires a protocol server to a registry and a message stream.
// If logger is nil, a discard logger is used.
func NewServer(registry *gateway.Registry, in io.Reader, out io.Writer, version string, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		registry: registry,
		opts:     opts.withDefaults(),
		version:  version,
		logger:   logger,
		in:       in,
		out:      out,
	}
}

// Run reads messages until EOF or context cancellation. Malformed input
// produces a JSON-RPC error response; it never terminates the loop.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if resp := s.handleMessage(ctx, []byte(line)); resp != nil {
			if err := s.write(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (s *Server) write(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}

func (s *Server) handleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: ParseError, Message: "Parse error", Data: err.Error()},
		}
	}

	if req.JSONRPC != "2.0" {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &Error{Code: InvalidRequest, Message: "Invalid JSON-RPC version"},
		}
	}

	return s.handleRequest(ctx, &req)
}

func (s *Server) handleRequest(ctx context.Context, req *Request) *Response {
	s.logger.Debug("handling request", slog.String("method", req.Method))

	var result any
	var errObj *Error

	switch req.Method {
	case "initialize":
		result, errObj = s.handleInitialize(req.Params)
	case "initialized", "notifications/initialized":
		// Notification, no response.
		return nil
	case "tools/list":
		result, errObj = s.handleListTools()
	case "tools/call":
		result, errObj = s.handleCallTool(ctx, req.Params)
	case "resources/list":
		result, errObj = s.handleListResources()
	case "resources/read":
		result, errObj = s.handleReadResource(ctx, req.Params)
	case "prompts/list":
		result, errObj = s.handleListPrompts()
	case "prompts/get":
		result, errObj = s.handleGetPrompt(req.Params)
	case "ping":
		result = map[string]any{}
	default:
		errObj = &Error{
			Code:    MethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   errObj,
	}
}

func (s *Server) handleInitialize(params json.RawMessage) (*InitializeResult, *Error) {
	var initParams InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &initParams); err != nil {
			return nil, &Error{
				Code:    InvalidParams,
				Message: "Invalid initialize parameters",
				Data:    err.Error(),
			}
		}
	}

	s.initialized = true
	s.logger.Info("client initialized",
		slog.String("client", initParams.ClientInfo.Name),
		slog.String("client_version", initParams.ClientInfo.Version))

	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     &ToolsCapability{},
			Resources: &ResourcesCapability{},
			Prompts:   &PromptsCapability{},
		},
		ServerInfo: ServerInfo{Name: ServerName, Version: s.version},
	}, nil
}

func (s *Server) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.QueryTimeout)
}
