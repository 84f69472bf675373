// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Cadence task tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jgcallah/cadence/internal/index"
	"github.com/jgcallah/cadence/internal/taskservice"
	"github.com/jgcallah/cadence/internal/tasks"
	"github.com/jgcallah/cadence/internal/vault"
)

const taskFormatURI = "cadence://task-format"

// Server wraps the MCP server with Cadence tools.
type Server struct {
	mcp *server.MCPServer
	svc *taskservice.Service
}

// New creates a new MCP server with all Cadence tools registered.
func New(svc *taskservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Cadence",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks from recent periodic notes, grouped into open, completed, overdue, stale and by priority."),
		mcp.WithNumber("days_back", mcp.Description("How many days back to scan (default from vault config)")),
		mcp.WithBoolean("include_completed", mcp.Description("Include completed tasks")),
		mcp.WithArray("note_types", mcp.Description("Note types to scan (default daily)"),
			mcp.Items(map[string]any{"type": "string", "enum": noteTypeNames()})),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("search_tasks",
		mcp.WithDescription("Search every task in the vault index by text, tag, priority or due date."),
		mcp.WithString("query", mcp.Description("Text to search for")),
		mcp.WithString("tag", mcp.Description("Only tasks with this tag (without #)")),
		mcp.WithString("priority", mcp.Description("Only tasks with this priority"), mcp.Enum("high", "medium", "low", "none")),
		mcp.WithString("due_before", mcp.Description("Only tasks due before this date (YYYY-MM-DD)")),
		mcp.WithBoolean("include_completed", mcp.Description("Include completed tasks")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 50)")),
	), s.searchTasks)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a task under a section of a note. Without path the task goes into "+
			"today's daily note. Read the task format via get_task_format or the "+taskFormatURI+" resource."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Task text without checkbox or metadata tokens")),
		mcp.WithString("path", mcp.Description("Vault-relative note path (must end with .md)")),
		mcp.WithString("note_type", mcp.Description("Periodic note to add to when path is empty"), mcp.Enum(noteTypeNames()...)),
		mcp.WithString("date", mcp.Description("Date of the periodic note (YYYY-MM-DD, default today)")),
		mcp.WithString("section", mcp.Description("Heading to add under (default from vault config)")),
		mcp.WithString("due", mcp.Description("Due date (YYYY-MM-DD)")),
		mcp.WithString("scheduled", mcp.Description("Scheduled date (YYYY-MM-DD)")),
		mcp.WithString("priority", mcp.Description("Task priority"), mcp.Enum("high", "medium", "low")),
		mcp.WithNumber("age", mcp.Description("Days the task has already been carried (non-negative)")),
		mcp.WithArray("tags", mcp.Description("Tags without #"), mcp.Items(map[string]any{"type": "string"})),
	), s.addTask)

	s.mcp.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Flip a task between open and completed."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative note path")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line number of the task")),
	), s.toggleTask)

	s.mcp.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Set or remove metadata on a task. Keys of fields are due, scheduled, created, "+
			"priority, age and tags; a null value removes the field and missing keys are left unchanged."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative note path")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line number of the task")),
		mcp.WithObject("fields", mcp.Required(), mcp.Description("Metadata fields to change")),
	), s.updateTask)

	s.mcp.AddTool(mcp.NewTool("rollover_tasks",
		mcp.WithDescription("Copy open tasks from recent daily notes into the target daily note, skipping duplicates."),
		mcp.WithNumber("source_days_back", mcp.Description("How many previous days to collect from (default from vault config)")),
		mcp.WithString("target_date", mcp.Description("Daily note to roll into (YYYY-MM-DD, default today)")),
	), s.rolloverTasks)

	s.mcp.AddTool(mcp.NewTool("get_task_format",
		mcp.WithDescription("Returns the Cadence task line format. "+
			"Call this before adding or editing tasks to use the right metadata tokens."),
	), s.getTaskFormat)

	s.mcp.AddResource(
		mcp.NewResource(taskFormatURI, "Task Format",
			mcp.WithResourceDescription("Task line syntax and metadata tokens understood by Cadence."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTaskFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func noteTypeNames() []string {
	types := vault.NoteTypes
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func dateArg(req mcp.CallToolRequest, key string) (*civil.Date, error) {
	s := strings.TrimSpace(req.GetString(key, ""))
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, s)
	}
	return &d, nil
}

func optionalInt(req mcp.CallToolRequest, key string) *int {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	n := req.GetInt(key, 0)
	return &n
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agendaReq := taskservice.AgendaRequest{
		DaysBack:         optionalInt(req, "days_back"),
		IncludeCompleted: req.GetBool("include_completed", false),
	}
	for _, name := range req.GetStringSlice("note_types", nil) {
		nt, err := vault.ParseNoteType(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		agendaReq.NoteTypes = append(agendaReq.NoteTypes, nt)
	}
	agenda, err := s.svc.Agenda(ctx, agendaReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(agenda)
}

func (s *Server) searchTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := index.TaskQuery{
		Text:             req.GetString("query", ""),
		Tag:              req.GetString("tag", ""),
		IncludeCompleted: req.GetBool("include_completed", false),
		Limit:            req.GetInt("limit", 0),
	}
	if p := req.GetString("priority", ""); p != "" {
		if strings.EqualFold(p, string(tasks.PriorityNone)) {
			q.Priority = tasks.PriorityNone
		} else if parsed, ok := tasks.ParsePriority(p); ok {
			q.Priority = parsed
		} else {
			return mcp.NewToolResultError(fmt.Sprintf("unknown priority %q", p)), nil
		}
	}
	due, err := dateArg(req, "due_before")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q.DueBefore = due

	rows, err := s.svc.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rows)
}

func (s *Server) addTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	addReq := taskservice.AddRequest{
		Path:    req.GetString("path", ""),
		Section: req.GetString("section", ""),
		Text:    text,
	}
	if name := req.GetString("note_type", ""); name != "" {
		if addReq.NoteType, err = vault.ParseNoteType(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if addReq.Date, err = dateArg(req, "date"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m := &addReq.Metadata
	if m.Due, err = dateArg(req, "due"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if m.Scheduled, err = dateArg(req, "scheduled"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m.Priority = tasks.Priority(req.GetString("priority", ""))
	m.Age = optionalInt(req, "age")
	m.Tags = req.GetStringSlice("tags", nil)

	res, err := s.svc.AddTask(ctx, addReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) toggleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Toggle(ctx, path, line)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) updateTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields, ok := req.GetArguments()["fields"].(map[string]any)
	if !ok {
		return mcp.NewToolResultError("fields must be an object"), nil
	}
	u, err := tasks.ParseMetadataUpdate(fields)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.UpdateMetadata(ctx, path, line, u)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) rolloverTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := dateArg(req, "target_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Rollover(ctx, taskservice.RolloverRequest{
		SourceDaysBack: optionalInt(req, "source_days_back"),
		TargetDate:     target,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getTaskFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TaskFormatContract), nil
}

func (s *Server) readTaskFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      taskFormatURI,
			MIMEType: "text/markdown",
			Text:     TaskFormatContract,
		},
	}, nil
}
