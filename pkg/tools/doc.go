// Package tools exposes configured scripts as MCP tools.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/any-script-mcp/pkg/tools/toolbox]: Tool type and an ordered ToolBox for registering, listing, and calling tools
//   - [github.com/germanamz/any-script-mcp/pkg/tools/scripttool]: builds a toolbox.Tool from each configured script, deriving its input schema and validating arguments
//   - [github.com/germanamz/any-script-mcp/pkg/tools/mcpserver]: MCP server using the official MCP Go SDK for exposing tools over stdio or streamable HTTP
//
// The toolbox sub-package is the foundation layer. scripttool fills a
// ToolBox; mcpserver publishes its tools and knows nothing about scripts.
package tools
