package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hearthside/eventsift/internal/extract"
)

// registerPromptResources publishes the system prompt for each record
// kind. The prompt embeds the current date, so it is rendered per read.
func registerPromptResources(s *server.MCPServer, h *handler) {
	for _, k := range extract.Kinds {
		resource := mcp.NewResource(
			"eventsift://prompt/"+string(k),
			"System prompt: "+string(k),
			mcp.WithResourceDescription("System prompt that asks a model for "+string(k)+" in the JSON shape the eventsift_"+string(k)+" tool reads best."),
			mcp.WithMIMEType("text/plain"),
		)

		s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      req.Params.URI,
					MIMEType: "text/plain",
					Text:     extract.SystemPrompt(k, h.now().In(h.loc)),
				},
			}, nil
		})
	}
}
