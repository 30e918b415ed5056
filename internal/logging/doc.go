// Package logging configures slog for symdex.
//
// Without --debug, warnings and errors go to stderr as text. With --debug,
// JSON records at debug level are written to ~/.symdex/logs/symdex.log
// through a size-rotating writer and mirrored to stderr. The MCP server
// logs to the file only, since stdout and stderr belong to the client.
package logging
