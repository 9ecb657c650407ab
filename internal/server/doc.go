// Package server implements the MCP (Model Context Protocol) server for the
// digit reading pipeline.
//
// This package provides a JSON-RPC 2.0 server that exposes the pipeline and
// its intermediate stages as MCP tools, so a client can read the digits on a
// photographed sign or inspect each geometry step on the way there.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_threshold: Binarize at the ISODATA level
//
// Sign Operations:
//   - sign_locate: Find sheet-like blobs
//   - sign_rectify: Warp the sign upright, from estimated or given corners
//
// Digit Operations:
//   - digits_segment: Frame the digit zone and split it into intervals
//   - digits_read: Run the full pipeline
//
// Tools that accept a mode default to the mode the server was configured
// with.
//
// # Image Caching
//
// Images and their grayscale buffers are cached by path and reused across
// tool calls for the lifetime of the server process.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC error responses:
//   - -32602: the arguments are missing or malformed
//   - -32000: the tool ran and failed, for example on a photo without a sign
//
// A digits_read call on a photo without readable digits is not an error; it
// returns an empty digit string and the diagnostics explaining why.
//
// # Usage
//
//	reader, err := pipeline.NewReader(classifier, opts, logger)
//	if err != nil {
//	    return err
//	}
//	return server.New(reader, logger, version).Run(ctx)
package server
