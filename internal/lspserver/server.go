// Package lspserver exposes the text engine over the Language Server
// Protocol (3.16) on stdio. Each open document is an engine buffer; ranged
// didChange notifications become engine insert/delete calls, and full-text
// sync is reduced to minimal edits via textdiff.
package lspserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/piecetree/pkg/observability"
	"github.com/Sumatoshi-tech/piecetree/pkg/version"
)

const serverName = "piecetree"

// Server implements the piecetree LSP server.
type Server struct {
	store   *DocumentStore
	logger  *slog.Logger
	metrics *observability.REDMetrics
	handler protocol.Handler
}

// NewServer creates an LSP server. The metrics argument may be nil; the
// logger must not be (pass a discard logger for silence).
func NewServer(logger *slog.Logger, metrics *observability.REDMetrics) *Server {
	srv := &Server{
		store:   NewDocumentStore(),
		logger:  logger,
		metrics: metrics,
	}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
		TextDocumentHover:     srv.hover,
	}

	return srv
}

// Store exposes the document store for readiness checks and tests.
func (srv *Server) Store() *DocumentStore {
	return srv.store
}

// Run starts the LSP server on stdio and blocks until the client disconnects.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	if err := lspServer.RunStdio(); err != nil {
		return fmt.Errorf("lsp stdio loop: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindIncremental

	serverVersion := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &serverVersion,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	srv.logger.Info("client initialized")

	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

// observe records one protocol operation against the RED instruments.
func (srv *Server) observe(op string, started time.Time, err error) {
	if srv.metrics == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}

	srv.metrics.RecordRequest(context.Background(), op, status, time.Since(started))
}

func (srv *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	started := time.Now()

	err := srv.store.Open(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
	srv.observe("didOpen", started, err)

	if err != nil {
		srv.logger.Warn("didOpen failed", "error", err)

		return err
	}

	srv.logger.Debug("document opened", "open_docs", srv.store.Len())

	return nil
}

func (srv *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	started := time.Now()
	uri := params.TextDocument.URI
	changeVersion := params.TextDocument.Version

	var err error

	for _, raw := range params.ContentChanges {
		if err = srv.applyChange(uri, raw, changeVersion); err != nil {
			break
		}
	}

	srv.observe("didChange", started, err)

	if err != nil {
		srv.logger.Warn("didChange failed", "error", err)

		return err
	}

	return nil
}

// applyChange dispatches one content change. glsp delivers ranged changes,
// whole-document changes, and (depending on decode path) raw JSON maps.
func (srv *Server) applyChange(uri string, raw any, changeVersion int32) error {
	switch change := raw.(type) {
	case protocol.TextDocumentContentChangeEvent:
		if change.Range == nil {
			return srv.store.ApplyFull(uri, change.Text, changeVersion)
		}

		return srv.store.ApplyIncremental(uri, fromProtocolRange(*change.Range), change.Text, changeVersion)

	case protocol.TextDocumentContentChangeEventWhole:
		return srv.store.ApplyFull(uri, change.Text, changeVersion)

	case map[string]any:
		return srv.applyRawChange(uri, change, changeVersion)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedChange, raw)
	}
}

func (srv *Server) applyRawChange(uri string, change map[string]any, changeVersion int32) error {
	text, _ := change["text"].(string)

	rawRange, hasRange := change["range"].(map[string]any)
	if !hasRange {
		return srv.store.ApplyFull(uri, text, changeVersion)
	}

	return srv.store.ApplyIncremental(uri, decodeRawRange(rawRange), text, changeVersion)
}

func fromProtocolRange(rng protocol.Range) protocolRange {
	return protocolRange{
		Start: protocolPosition{Line: int(rng.Start.Line), Character: int(rng.Start.Character)},
		End:   protocolPosition{Line: int(rng.End.Line), Character: int(rng.End.Character)},
	}
}

func decodeRawRange(raw map[string]any) protocolRange {
	decode := func(key string) protocolPosition {
		pos, _ := raw[key].(map[string]any)
		line, _ := pos["line"].(float64)
		character, _ := pos["character"].(float64)

		return protocolPosition{Line: int(line), Character: int(character)}
	}

	return protocolRange{Start: decode("start"), End: decode("end")}
}

func (srv *Server) didSave(_ *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	// Saving has no engine-side effect; audit invariants as a cheap canary.
	if err := srv.store.Validate(params.TextDocument.URI); err != nil {
		srv.logger.Error("engine validation failed on save", "error", err)

		return err
	}

	return nil
}

func (srv *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	started := time.Now()

	err := srv.store.Close(params.TextDocument.URI)
	srv.observe("didClose", started, err)

	if err != nil {
		srv.logger.Warn("didClose failed", "error", err)

		return err
	}

	return nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	stats, err := srv.store.DocumentStats(params.TextDocument.URI)
	if err != nil {
		return nil, nil //nolint:nilerr // protocol expects nil hover when unavailable
	}

	value := fmt.Sprintf(
		"**piecetree** v%d — %d bytes, %d lines, %d pieces, tree height %d",
		stats.Version, stats.Bytes, stats.Lines, stats.Pieces, stats.TreeHeight)

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}, nil
}
