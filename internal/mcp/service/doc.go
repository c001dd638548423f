// Package service assembles the dicebox MCP server: tool registration,
// transport selection, and the plain HTTP surface served alongside the
// MCP endpoint in HTTP mode.
package service
