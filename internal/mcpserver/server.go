// Package mcpserver exposes transcript queries as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ES-COCO/es-coco/internal/db"
	"github.com/ES-COCO/es-coco/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Service is the assembly surface the tools call.
type Service interface {
	Segments(ctx context.Context, ids []int64, order db.SegmentOrder) ([]transcript.Segment, error)
	Segment(ctx context.Context, id int64) (transcript.Segment, error)
	SwitchSegments(ctx context.Context) ([]transcript.Segment, error)
	DataSourceSegments(ctx context.Context, dataSourceID int64) ([]transcript.Segment, error)
	DataSource(ctx context.Context, id int64) (transcript.DataSource, error)
}

type Server struct {
	mcp     *server.MCPServer
	service Service
	log     *zap.Logger
}

// New registers every tool on a new MCP server.
func New(service Service, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		mcp:     server.NewMCPServer("escoco", version, server.WithToolCapabilities(false)),
		service: service,
		log:     log,
	}

	s.mcp.AddTool(mcp.NewTool("list_switch_segments",
		mcp.WithDescription("List every transcript segment containing an English/Spanish code-switch, one per line with its id, time range, data source and text."),
	), s.listSwitchSegments)

	s.mcp.AddTool(mcp.NewTool("get_segments",
		mcp.WithDescription("Get segments with their words and language/part-of-speech annotations as JSON."),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Comma separated segment ids, e.g. \"1,2,3\"")),
		mcp.WithString("order", mcp.Description("Sort order: \"source\" (data source name, then start time) or \"start\""), mcp.Enum("source", "start")),
	), s.getSegments)

	s.mcp.AddTool(mcp.NewTool("data_source_segments",
		mcp.WithDescription("List all segments of one data source ordered by start time."),
		mcp.WithNumber("data_source_id", mcp.Required(), mcp.Description("Data source id")),
	), s.dataSourceSegments)

	s.mcp.AddTool(mcp.NewTool("segment_text",
		mcp.WithDescription("Get the display text of one segment."),
		mcp.WithNumber("segment_id", mcp.Required(), mcp.Description("Segment id")),
	), s.segmentText)

	return s
}

// ServeStdio serves MCP on stdin/stdout until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) listSwitchSegments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	segments, err := s.service.SwitchSegments(ctx)
	if err != nil {
		return s.toolError("list_switch_segments", err), nil
	}
	if len(segments) == 0 {
		return mcp.NewToolResultText("No code-switch segments."), nil
	}
	return mcp.NewToolResultText(formatLines(segments, true)), nil
}

func (s *Server) getSegments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := parseIDs(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	order, ok := db.ParseSegmentOrder(req.GetString("order", ""))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid order %q", req.GetString("order", ""))), nil
	}

	segments, err := s.service.Segments(ctx, ids, order)
	if err != nil {
		return s.toolError("get_segments", err), nil
	}
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal segments: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) dataSourceSegments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("data_source_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ds, err := s.service.DataSource(ctx, int64(id))
	if err != nil {
		return s.toolError("data_source_segments", err), nil
	}
	segments, err := s.service.DataSourceSegments(ctx, ds.ID)
	if err != nil {
		return s.toolError("data_source_segments", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d segments)\n", ds.Name, len(segments))
	if ds.Creator != "" {
		fmt.Fprintf(&b, "Creator: %s\n", ds.Creator)
	}
	if ds.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", ds.URL)
	}
	b.WriteString("\n")
	b.WriteString(formatLines(segments, false))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) segmentText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("segment_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seg, err := s.service.Segment(ctx, int64(id))
	if err != nil {
		return s.toolError("segment_text", err), nil
	}
	return mcp.NewToolResultText(seg.Text()), nil
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.log.Warn("tool failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(err.Error())
}

// formatLines renders one segment per line.
func formatLines(segments []transcript.Segment, withSource bool) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%d] %s ", seg.ID, seg.TimeRange())
		if withSource {
			fmt.Fprintf(&b, "%s: ", seg.SourceName)
		}
		b.WriteString(seg.Text())
	}
	return b.String()
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid segment id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no segment ids given")
	}
	return ids, nil
}
