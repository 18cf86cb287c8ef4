// Package mcptools connects external MCP tool servers and surfaces
// their tools through the local tool interface. Connections are
// established once at startup and shared read-only across turns.
package mcptools

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abrachat/abrachat/tools"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "mcptools")

// Transport names accepted in a server spec.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable_http"
)

// ServerSpec describes one external MCP server. Stdio servers are
// spawned as subprocesses; streamable HTTP servers are dialed by URL.
type ServerSpec struct {
	Command   string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args      []string          `json:"args,omitempty" yaml:"args,omitempty"`
	URL       string            `json:"url,omitempty" yaml:"url,omitempty"`
	Transport string            `json:"transport" yaml:"transport"`
	Env       map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

func (s *ServerSpec) validate(name string) error {
	switch s.Transport {
	case TransportStdio:
		if s.Command == "" {
			return errors.Newf("mcp server %q: command is required for stdio transport", name)
		}
	case TransportStreamableHTTP:
		if s.URL == "" {
			return errors.Newf("mcp server %q: url is required for streamable_http transport", name)
		}
	default:
		return errors.Newf("mcp server %q: unsupported transport %q", name, s.Transport)
	}
	return nil
}

// Set holds live connections to external servers and the tools they
// export. Close tears all connections down.
type Set struct {
	clients map[string]*client.Client
	tools   []tools.ITool
}

// Connect establishes all configured servers and lists their tools.
// Any failure closes the servers connected so far; a partial tool set
// is never returned.
func Connect(ctx context.Context, servers map[string]ServerSpec, clientName, clientVersion string) (*Set, error) {
	set := &Set{
		clients: make(map[string]*client.Client, len(servers)),
	}

	// map order is random; connect in name order so startup logs and
	// tool ordering are stable
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := servers[name]
		if err := spec.validate(name); err != nil {
			_ = set.Close()
			return nil, err
		}
		if err := set.connect(ctx, name, spec, clientName, clientVersion); err != nil {
			_ = set.Close()
			return nil, errors.WithMessagef(err, "mcp server %q", name)
		}
	}
	return set, nil
}

func (s *Set) connect(ctx context.Context, name string, spec ServerSpec, clientName, clientVersion string) error {
	var (
		c   *client.Client
		err error
	)
	switch spec.Transport {
	case TransportStdio:
		c, err = client.NewStdioMCPClient(spec.Command, envList(spec.Env), spec.Args...)
	case TransportStreamableHTTP:
		c, err = client.NewStreamableHttpClient(spec.URL)
	}
	if err != nil {
		return errors.Wrap(err, "failed to create client")
	}

	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return errors.Wrap(err, "failed to start client")
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return errors.Wrap(err, "failed to initialize")
	}

	listResp, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = c.Close()
		return errors.Wrap(err, "failed to list tools")
	}

	s.clients[name] = c
	for _, t := range listResp.Tools {
		s.tools = append(s.tools, &remoteTool{
			client:      c,
			server:      name,
			name:        t.Name,
			description: t.Description,
			params:      schemaToMap(t.InputSchema),
		})
	}

	logger.ContextKV(ctx, xlog.INFO,
		"server", name,
		"transport", spec.Transport,
		"tools", len(listResp.Tools),
	)
	return nil
}

// Tools returns the remote tools across all connected servers, in
// server name order.
func (s *Set) Tools() []tools.ITool {
	return s.tools
}

// Close closes every connection.
func (s *Set) Close() error {
	var errs error
	for name, c := range s.clients {
		if err := c.Close(); err != nil {
			errs = errors.CombineErrors(errs, errors.WithMessagef(err, "mcp server %q", name))
		}
		delete(s.clients, name)
	}
	s.tools = nil
	return errs
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

func schemaToMap(schema mcp.ToolInputSchema) map[string]any {
	bs, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(bs, &m); err != nil {
		return nil
	}
	return m
}

// remoteTool forwards calls to a tool exported by an external server.
type remoteTool struct {
	client      *client.Client
	server      string
	name        string
	description string
	params      map[string]any
}

var _ tools.ITool = (*remoteTool)(nil)

func (t *remoteTool) Name() string {
	return t.name
}

func (t *remoteTool) Description() string {
	return t.description
}

func (t *remoteTool) Parameters() any {
	return t.params
}

// RemoteError reports a tool result the server marked as failed.
type RemoteError struct {
	Server string
	Tool   string
	Text   string
}

func (e *RemoteError) Error() string {
	return "mcp server " + e.Server + ", tool " + e.Tool + ": " + e.Text
}

func (e *RemoteError) ErrorKind() string {
	return "remote"
}

func (t *remoteTool) Call(ctx context.Context, input string) (string, error) {
	args := map[string]any{}
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", errors.Wrap(err, "failed to unmarshal input")
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = args

	resp, err := t.client.CallTool(ctx, req)
	if err != nil {
		return "", errors.WithMessagef(err, "mcp server %q", t.server)
	}

	text := contentText(resp.Content)
	if resp.IsError {
		if text == "" {
			text = "unknown error"
		}
		return "", &RemoteError{Server: t.server, Tool: t.name, Text: text}
	}
	return text, nil
}

func contentText(content []mcp.Content) string {
	var texts []string
	for _, c := range content {
		if tc, ok := c.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, "\n")
}
