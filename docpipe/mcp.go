package docpipe

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/legaldoc/kit"
)

// RegisterMCP registers the extraction tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerExtractTool(srv)
	p.registerDetectTool(srv)
	p.registerFormatsTool(srv)
}

// --- extract ---

type extractReq struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content_base64"` // base64 in JSON
}

func (p *Pipeline) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "legaldoc_extract",
		Description: "Extract plain text and diagnostics from a legal document (pdf, docx, txt, md, html). The filename only selects the format.",
		InputSchema: kit.InputSchema(map[string]any{
			"filename":       map[string]any{"type": "string", "description": "Original file name, e.g. contrato.pdf"},
			"content_base64": map[string]any{"type": "string", "description": "Document bytes, base64-encoded"},
		}, []string{"filename", "content_base64"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*extractReq)
		return p.Extract(ctx, r.Content, r.Filename)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r extractReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(p.logger, tool.Name)(endpoint), decode)
}

// --- detect ---

type detectReq struct {
	Filename string `json:"filename"`
}

func (p *Pipeline) registerDetectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "legaldoc_detect",
		Description: "Detect the format of a document from its file name suffix.",
		InputSchema: kit.InputSchema(map[string]any{
			"filename": map[string]any{"type": "string", "description": "File name to detect"},
		}, []string{"filename"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*detectReq)
		format, err := Detect(r.Filename)
		if err != nil {
			return nil, err
		}
		return map[string]any{"format": string(format)}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r detectReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- formats ---

func (p *Pipeline) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "legaldoc_formats",
		Description: "List the supported document formats and file name suffixes.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{
			"formats":  SupportedFormats(),
			"suffixes": SupportedSuffixes(),
		}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
