package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusURI is the URI of the index status resource.
const StatusURI = "symdex://status"

func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "index_status",
			URI:         StatusURI,
			Description: "File and symbol counts of the symdex index",
			MIMEType:    "application/json",
		},
		s.handleStatusResource,
	)
}

func (s *Server) handleStatusResource(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	status, err := s.handleIndexStatus(ctx)
	if err != nil {
		return nil, err
	}
	content, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      StatusURI,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}
