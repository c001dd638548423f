// Package domain defines the MCP tool surface for dicebox: tool schemas,
// typed inputs and outputs, and the handlers that execute them.
package domain
