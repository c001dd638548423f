package service

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/obrandt/dicebox/internal/mcp/domain"
)

func registerTools(mcpServer *mcp.Server, server *Server) {
	mcp.AddTool(mcpServer, domain.PoetTool(), server.poet)
	mcp.AddTool(mcpServer, domain.RollDiceTool(), server.rollDice)
}
