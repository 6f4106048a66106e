package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// protocolVersion is the MCP revision this server speaks.
const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// maxLine bounds one request line.
const maxLine = 1 << 20

// Server is an MCP stdio server. It reads newline-delimited JSON-RPC
// requests and answers tool calls from a Source.
type Server struct {
	src     Source
	version string

	tools   []toolDef
	byName  map[string]int
	methods map[string]method
}

type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

type toolHandler func(ctx context.Context, args json.RawMessage) (any, error)

// method answers one JSON-RPC method. A returned *rpcError becomes the
// response's error member.
type method func(ctx context.Context, params json.RawMessage) (any, *rpcError)

type request struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *rpcError        `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callResult is the MCP content envelope for a tool result.
type callResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// NewServer constructs a Server whose tools read from src.
func NewServer(src Source, version string) *Server {
	s := &Server{src: src, version: version, byName: make(map[string]int)}
	s.methods = map[string]method{
		"initialize": s.initialize,
		"ping":       func(context.Context, json.RawMessage) (any, *rpcError) { return struct{}{}, nil },
		"tools/list": s.listTools,
		"tools/call": s.invokeTool,
	}
	addTools(s)
	return s
}

// registerTool adds or replaces a tool by name.
func (s *Server) registerTool(def toolDef) {
	if i, ok := s.byName[def.Name]; ok {
		s.tools[i] = def
		return
	}
	s.byName[def.Name] = len(s.tools)
	s.tools = append(s.tools, def)
}

// Run serves requests from r until ctx is cancelled or r reaches EOF.
// Only I/O failures are returned; malformed requests are answered.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLine)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- sc.Err()
	}()

	bw := bufio.NewWriter(w)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			resp, reply := s.handle(ctx, line)
			if !reply {
				continue
			}
			if err := writeLine(bw, resp); err != nil {
				return err
			}
		}
	}
}

// handle decodes one line and runs its method. Notifications and blank
// lines produce no reply.
func (s *Server) handle(ctx context.Context, line string) (response, bool) {
	if strings.TrimSpace(line) == "" {
		return response{}, false
	}
	var req request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "Parse error"}}, true
	}
	if req.ID == nil {
		return response{}, false
	}

	resp := response{JSONRPC: "2.0", ID: req.ID}
	m, ok := s.methods[req.Method]
	if !ok {
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "Method not found"}
		return resp, true
	}
	resp.Result, resp.Error = m(ctx, req.Params)
	return resp, true
}

func (s *Server) initialize(context.Context, json.RawMessage) (any, *rpcError) {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo":      map[string]any{"name": "purrwatch", "version": s.version},
	}, nil
}

func (s *Server) listTools(context.Context, json.RawMessage) (any, *rpcError) {
	infos := make([]toolInfo, len(s.tools))
	for i, t := range s.tools {
		infos[i] = toolInfo{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	return map[string]any{"tools": infos}, nil
}

func (s *Server) invokeTool(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p callParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
	}
	return s.callTool(ctx, p), nil
}

// callTool runs the named tool. Tool failures are reported in the result
// with isError set, not as JSON-RPC errors.
func (s *Server) callTool(ctx context.Context, p callParams) callResult {
	i, ok := s.byName[p.Name]
	if !ok {
		return errorResult("unknown tool: " + p.Name)
	}
	args := p.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	v, err := s.tools[i].Handler(ctx, args)
	if err != nil {
		return errorResult(err.Error())
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err.Error())
	}
	return callResult{Content: []textContent{{Type: "text", Text: string(data)}}}
}

func errorResult(msg string) callResult {
	return callResult{Content: []textContent{{Type: "text", Text: msg}}, IsError: true}
}

func writeLine(bw *bufio.Writer, resp response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.Flush()
}
