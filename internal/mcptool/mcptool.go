// Package mcptool exposes a single "stretch_audio" tool over the Model
// Context Protocol, so an agent can drive the core the same way
// ka9q_ubersdr's mcp_server.go exposes get_space_weather/get_noise_floor
// as tools backed by an mcp-go server.
package mcptool

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cwsl/paulstretch/stretch"
	"github.com/cwsl/paulstretch/wavio"

	"bytes"
)

// Server wraps an mcp-go server that exposes stretch_audio.
type Server struct {
	core       *stretch.Core
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

// New builds an MCP server backed by core.
func New(core *stretch.Core) *Server {
	s := &Server{core: core}

	s.mcpServer = server.NewMCPServer(
		"paulstretch",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	s.httpServer = server.NewStreamableHTTPServer(s.mcpServer)
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("stretch_audio",
			mcp.WithDescription("Time-stretch a WAV audio clip using the PaulStretch algorithm, smearing it into an ambient texture without shifting pitch. Accepts base64-encoded 16-bit PCM WAV and returns base64-encoded 16-bit PCM WAV of the stretched result."),
			mcp.WithString("wav_base64",
				mcp.Description("Base64-encoded 16-bit PCM WAV input audio"),
				mcp.Required(),
			),
			mcp.WithNumber("stretch_factor",
				mcp.Description("Stretch factor, typically 2-50"),
				mcp.DefaultNumber(8),
			),
			mcp.WithNumber("window_seconds",
				mcp.Description("Analysis window length in seconds, typically 0.05-0.25"),
				mcp.DefaultNumber(0.25),
			),
		),
		s.handleStretchAudio,
	)
}

func (s *Server) handleStretchAudio(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wavB64, err := request.RequireString("wav_base64")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	factor := request.GetFloat("stretch_factor", 8)
	windowSeconds := request.GetFloat("window_seconds", 0.25)

	raw, err := base64.StdEncoding.DecodeString(wavB64)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid base64 input: %v", err)), nil
	}

	in, err := wavio.Decode(bytes.NewReader(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid WAV input: %v", err)), nil
	}

	core := s.core
	if factor != 8 || windowSeconds != 0.25 {
		var buildErr error
		core, buildErr = stretch.New(stretch.Config{StretchFactor: factor, WindowSizeSeconds: windowSeconds})
		if buildErr != nil {
			return mcp.NewToolResultError(buildErr.Error()), nil
		}
	}

	out, err := core.Stretch(in, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stretch failed: %v", err)), nil
	}

	var outBuf bytes.Buffer
	if err := wavio.Encode(&outBuf, out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}

	return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(outBuf.Bytes())), nil
}

// ServeHTTP lets Server be mounted directly on an http.ServeMux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.ServeHTTP(w, r)
}
