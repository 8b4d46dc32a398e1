// Package service wires the MCP transport to the match scoring tools.
//
// It owns the MCP server, the match store handle, and the tool registrations;
// scoring meaning lives in the domain package.
package service
