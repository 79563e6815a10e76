// Package mcp provides an MCP (Model Context Protocol) server for lens.
// This allows AI agents to request assembled context or full explanations
// through MCP tools instead of CLI commands.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hargabyte/lens/internal/config"
	"github.com/hargabyte/lens/internal/llm"
	"github.com/hargabyte/lens/internal/locate"
	"github.com/hargabyte/lens/internal/pipeline"
	"github.com/hargabyte/lens/internal/semantic"
	"github.com/hargabyte/lens/internal/source"
	"github.com/hargabyte/lens/internal/symbols"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

// Server wraps the MCP server with lens-specific functionality.
type Server struct {
	mcpServer    *server.MCPServer
	pipe         *pipeline.Pipeline
	table        *symbols.DB
	reader       source.Reader
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration.
type Config struct {
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// New creates an MCP server wired to the project in the working directory.
func New(cfg Config) (*Server, error) {
	projectCfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}

	lensDir, err := config.FindConfigDir(".")
	if err != nil {
		return nil, fmt.Errorf("lens not initialized: run 'lens init && lens index' first")
	}
	root := filepath.Dir(lensDir)

	table, err := symbols.Open(lensDir)
	if err != nil {
		return nil, fmt.Errorf("open symbol table: %w", err)
	}

	embedder := semantic.NewOllamaEmbedderWithConfig(projectCfg.Model.Endpoint, projectCfg.Index.EmbeddingModel)
	index, err := semantic.NewPersistentStore(filepath.Join(lensDir, "vectors"), embedder)
	if err != nil {
		table.Close()
		return nil, fmt.Errorf("open semantic index: %w", err)
	}

	reader := source.NewFSReader(root)
	provider := locate.NewTableProvider(reader, table)
	client := llm.NewOllamaClientWithConfig(projectCfg.Model.Endpoint, projectCfg.Model.Name)

	pipe := pipeline.New(provider, reader, table, index, client, pipelineOptions(projectCfg))

	s := NewWithPipeline(pipe, reader, cfg)
	s.table = table
	return s, nil
}

// NewWithPipeline creates a server around an existing pipeline. Used by
// tests and by hosts that wire their own collaborators.
func NewWithPipeline(pipe *pipeline.Pipeline, reader source.Reader, cfg Config) *Server {
	mcpServer := server.NewMCPServer(
		"lens",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		pipe:         pipe,
		reader:       reader,
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	s.registerContextTool()
	s.registerExplainTool()

	return s
}

// pipelineOptions maps the project config onto the per-stage knobs.
func pipelineOptions(cfg *config.Config) pipeline.Options {
	opts := pipeline.Options{MaxReferences: cfg.Context.MaxReferences}
	opts.Rank.MaxSymbols = cfg.Context.MaxSymbols
	opts.Rank.MaxFiles = cfg.Context.MaxFiles
	opts.Resolve.MaxBytes = cfg.Context.MaxReadBytes
	opts.Resolve.TopK = cfg.Context.SemanticTopK
	opts.Plan.ExpandLines = cfg.Context.ExpandLines
	opts.Plan.MaxBytes = cfg.Context.MaxReadBytes
	opts.Plan.BytesPerLine = cfg.Context.BytesPerLine
	opts.Plan.HeadLines = cfg.Context.HeadLines
	opts.Plan.TailLines = cfg.Context.TailLines
	opts.Assemble.MaxTokens = cfg.Prompt.MaxTokens
	opts.Assemble.MaxChars = cfg.Prompt.MaxChars
	return opts
}

// ServeStdio starts the server using stdio transport.
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}
	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded.
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "lens mcp: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp.
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close closes the server and its resources.
func (s *Server) Close() error {
	if s.table != nil {
		return s.table.Close()
	}
	return nil
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the result string or an error.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	sel, question, err := selectionFromArgs(s.reader, args)
	if err != nil {
		return "", err
	}

	switch name {
	case "lens_context":
		return s.executeContext(ctx, sel, question)
	case "lens_explain":
		return s.executeExplain(ctx, sel, question)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// registerContextTool registers the lens_context tool.
func (s *Server) registerContextTool() {
	tool := mcp.NewTool("lens_context",
		mcp.WithDescription("Assemble token-bounded context around a code position: the definition of the symbol under the cursor, resolved dependencies, and nearby references. Returns the context document without calling a model."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("File path relative to the project root"),
		),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based line number of the cursor"),
		),
		mcp.WithNumber("column",
			mcp.Description("1-based column number of the cursor (default: 1)"),
		),
		mcp.WithString("selection",
			mcp.Description("Selected code text (default: the cursor's line)"),
		),
		mcp.WithString("question",
			mcp.Description("Question the context should serve"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleContext)
}

// registerExplainTool registers the lens_explain tool.
func (s *Server) registerExplainTool() {
	tool := mcp.NewTool("lens_explain",
		mcp.WithDescription("Explain the code at a position using the configured local model. Assembles token-bounded context and returns the model's explanation."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("File path relative to the project root"),
		),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based line number of the cursor"),
		),
		mcp.WithNumber("column",
			mcp.Description("1-based column number of the cursor (default: 1)"),
		),
		mcp.WithString("selection",
			mcp.Description("Selected code text (default: the cursor's line)"),
		),
		mcp.WithString("question",
			mcp.Description("Question to ask about the selection"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleExplain)
}

// Tool handlers

func (s *Server) handleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	sel, question, err := selectionFromArgs(s.reader, req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.executeContext(ctx, sel, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleExplain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	sel, question, err := selectionFromArgs(s.reader, req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.executeExplain(ctx, sel, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

// selectionFromArgs builds the pipeline selection from tool arguments. When
// no selection text is given, the cursor's line stands in.
func selectionFromArgs(reader source.Reader, args map[string]interface{}) (pipeline.Selection, string, error) {
	file, _ := args["file"].(string)
	if file == "" {
		return pipeline.Selection{}, "", fmt.Errorf("file parameter is required")
	}

	lineArg, ok := args["line"].(float64)
	if !ok || lineArg < 1 {
		return pipeline.Selection{}, "", fmt.Errorf("line parameter is required and must be a 1-based line number")
	}
	line := int(lineArg) - 1

	col := 0
	if c, ok := args["column"].(float64); ok && c >= 1 {
		col = int(c) - 1
	}

	text, _ := args["selection"].(string)
	if text == "" && reader != nil {
		text, _ = reader.ReadRange(file, line, line+1)
	}

	question, _ := args["question"].(string)
	if question == "" {
		question = "Explain what this code does and why."
	}

	return pipeline.Selection{Path: file, Line: line, Char: col, Text: text}, question, nil
}

// executeContext runs the pipeline up to prompt assembly and renders the
// result as YAML.
func (s *Server) executeContext(ctx context.Context, sel pipeline.Selection, question string) (string, error) {
	built, err := s.pipe.BuildContext(ctx, sel, question)
	if err != nil {
		return "", err
	}

	out := map[string]interface{}{
		"tokens":   built.Prompt.Tokens,
		"chars":    built.Prompt.Chars,
		"trimmed":  built.Prompt.Trimmed,
		"plan":     built.Plan,
		"document": built.Prompt.Document,
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// executeExplain runs the full pipeline including the model call.
func (s *Server) executeExplain(ctx context.Context, sel pipeline.Selection, question string) (string, error) {
	answer, _, err := s.pipe.Explain(ctx, sel, question)
	if err != nil {
		return "", err
	}
	return answer, nil
}
