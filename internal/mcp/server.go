// Package mcp exposes a scene session as MCP tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"scenecraft/internal/scene"
)

type Server struct {
	session *scene.Session
	mcp     *sdk.Server
}

func NewServer(session *scene.Session, version string) *Server {
	s := &Server{
		session: session,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "scenecraft",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
