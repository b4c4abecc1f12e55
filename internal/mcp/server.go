// Package mcp provides a Model Context Protocol server for eventsift.
//
// It exposes the extraction pipeline as MCP tools: an agent that already
// has a model response hands it over and gets normalized records back.
// When an LLM provider is configured the server can also run the whole
// round trip from the user's text. The system prompts are published as
// resources so agents can ask their own model for compatible output.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hearthside/eventsift/internal/extract"
	"github.com/hearthside/eventsift/internal/llm"
	"github.com/hearthside/eventsift/internal/temporal"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Pipeline *extract.Pipeline // nil = default pipeline
	Provider llm.Provider      // optional, enables eventsift_extract
	Location *time.Location    // zone for reference times; nil = time.Local
	Now      func() time.Time  // clock for the default reference time
	Version  string            // version string for MCP server info
}

type handler struct {
	pipeline *extract.Pipeline
	provider llm.Provider
	loc      *time.Location
	now      func() time.Time
}

// NewServer creates a configured MCP server with all eventsift tools and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	h := &handler{pipeline: cfg.Pipeline, provider: cfg.Provider, loc: cfg.Location, now: cfg.Now}
	if h.pipeline == nil {
		h.pipeline = extract.NewPipeline()
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}

	s := server.NewMCPServer(
		"eventsift",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	for _, k := range extract.Kinds {
		registerNormalizeTool(s, h, k)
	}
	registerResolveDateTool(s, h)
	if h.provider != nil {
		registerExtractTool(s, h)
	}

	registerPromptResources(s, h)

	return s
}

// ServeStdio serves s over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// --- Tools ---

var toolDescriptions = map[extract.Kind]string{
	extract.KindEvents:   "Normalize a model response into calendar events. Resolves relative and partial times against the reference time, infers missing end times and recurrence, and degrades to a best-effort event built from user_input when the response is unusable.",
	extract.KindExpenses: "Normalize a model response into expense records (amount, currency, category, date).",
	extract.KindTodos:    "Normalize a model response into to-do items (title, due date, priority, completion).",
	extract.KindMeals:    "Normalize a model response into meal records (meal type, foods, calories).",
}

func registerNormalizeTool(s *server.MCPServer, h *handler, k extract.Kind) {
	tool := mcp.NewTool("eventsift_"+string(k),
		mcp.WithDescription(toolDescriptions[k]),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("response",
			mcp.Required(),
			mcp.Description("Raw model response text; JSON may be fenced or surrounded by prose"),
		),
		mcp.WithString("user_input",
			mcp.Description("The user's original text, used for context and as fallback material"),
		),
		mcp.WithString("reference_time",
			mcp.Description("Reference instant, RFC 3339 or 'YYYY-MM-DD HH:MM:SS' (default: now)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("response")
		if err != nil {
			return mcp.NewToolResultError("response is required"), nil
		}
		ref, err := h.reference(req.GetString("reference_time", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		env := h.pipeline.Process(k, raw, req.GetString("user_input", ""), ref)
		data, _ := json.MarshalIndent(env, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// resolvedDate is the eventsift_resolve_date reply.
type resolvedDate struct {
	Input    string `json:"input"`
	Resolved string `json:"resolved,omitempty"`
	ISO      string `json:"iso,omitempty"`
	Rule     string `json:"rule,omitempty"`
	TimeOnly bool   `json:"time_only,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func registerResolveDateTool(s *server.MCPServer, h *handler) {
	tool := mcp.NewTool("eventsift_resolve_date",
		mcp.WithDescription("Resolve one date/time expression (\"明天下午3點\", \"next friday\", \"2024-03-05 14:00\") to an absolute local time. Impossible or far-off dates are reported with a reason code."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The expression to resolve"),
		),
		mcp.WithString("reference_time",
			mcp.Description("Reference instant, RFC 3339 or 'YYYY-MM-DD HH:MM:SS' (default: now)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil || strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("text is required"), nil
		}
		ref, err := h.reference(req.GetString("reference_time", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		out := resolvedDate{Input: text}
		r, err := temporal.Accept(text, ref)
		if err != nil {
			out.Reason = string(temporal.ReasonOf(err))
			data, _ := json.MarshalIndent(out, "", "  ")
			return mcp.NewToolResultError(string(data)), nil
		}
		out.Resolved = temporal.Format(r.Time)
		out.ISO = r.Time.Format(time.RFC3339)
		out.Rule = r.Rule
		out.TimeOnly = r.TimeOnly

		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerExtractTool(s *server.MCPServer, h *handler) {
	kinds := make([]string, 0, len(extract.Kinds))
	for _, k := range extract.Kinds {
		kinds = append(kinds, string(k))
	}

	tool := mcp.NewTool("eventsift_extract",
		mcp.WithDescription(fmt.Sprintf("Send the user's text to the configured model (%s) and normalize its answer. Use when you do not want to prompt a model yourself.", h.provider.Name())),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The user's free-form text"),
		),
		mcp.WithString("kind",
			mcp.Description("Record kind (default: events)"),
			mcp.Enum(kinds...),
		),
		mcp.WithString("reference_time",
			mcp.Description("Reference instant, RFC 3339 or 'YYYY-MM-DD HH:MM:SS' (default: now)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		k, err := extract.ParseKind(req.GetString("kind", string(extract.KindEvents)))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ref, err := h.reference(req.GetString("reference_time", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		raw, err := extract.Request(ctx, h.provider, k, text, ref, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("model call failed: %v", err)), nil
		}

		data, _ := json.MarshalIndent(h.pipeline.Process(k, raw, text, ref), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// reference parses a reference_time argument. Blank means now.
func (h *handler) reference(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return h.now().In(h.loc), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(h.loc), nil
	}
	if t, err := time.ParseInLocation(temporal.CanonicalLayout, s, h.loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid reference_time %q: want RFC 3339 or %s", s, temporal.CanonicalLayout)
}
