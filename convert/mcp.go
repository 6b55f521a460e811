package convert

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/legaldoc/kit"
)

type convertReq struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content_base64"` // base64 in JSON
}

// RegisterMCP registers the legaldoc_convert tool on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "legaldoc_convert",
		Description: "Convert a legal document (pdf, docx, txt, md, html) into normalized chunked Markdown with extraction diagnostics.",
		InputSchema: kit.InputSchema(map[string]any{
			"filename":       map[string]any{"type": "string", "description": "Original file name; its suffix selects the format"},
			"content_base64": map[string]any{"type": "string", "description": "Document bytes, base64-encoded"},
		}, []string{"filename", "content_base64"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*convertReq)
		return s.Convert(ctx, Item{Filename: r.Filename, Data: r.Content})
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r convertReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(s.logger, tool.Name)(endpoint), decode)
}
