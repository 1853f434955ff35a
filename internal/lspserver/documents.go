package lspserver

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
	"github.com/Sumatoshi-tech/piecetree/pkg/textdiff"
)

var (
	// ErrDocumentNotOpen reports an operation on a URI with no open document.
	ErrDocumentNotOpen = errors.New("document not open")
	// ErrDocumentAlreadyOpen reports a didOpen for an already-open URI.
	ErrDocumentAlreadyOpen = errors.New("document already open")
	// ErrUnsupportedChange reports a didChange payload shape the server
	// cannot decode.
	ErrUnsupportedChange = errors.New("unsupported content change")
)

// document is one open text document backed by an engine buffer. The mutex
// serializes mutations; the engine itself is single-writer.
type document struct {
	mu      sync.RWMutex
	buffer  *textbuf.TextBuffer
	version int32
}

// DocumentStore tracks open documents keyed by URI.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*document
}

// NewDocumentStore creates an empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*document),
	}
}

// Open creates an engine buffer for the URI from its initial text.
func (ds *DocumentStore) Open(uri, text string, version int32) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, exists := ds.documents[uri]; exists {
		return fmt.Errorf("%s: %w", uri, ErrDocumentAlreadyOpen)
	}

	ds.documents[uri] = &document{
		buffer:  textbuf.New(text),
		version: version,
	}

	return nil
}

// Close discards the document for the URI.
func (ds *DocumentStore) Close(uri string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, exists := ds.documents[uri]; !exists {
		return fmt.Errorf("%s: %w", uri, ErrDocumentNotOpen)
	}

	delete(ds.documents, uri)

	return nil
}

// Len returns the number of open documents.
func (ds *DocumentStore) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return len(ds.documents)
}

func (ds *DocumentStore) get(uri string) (*document, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, exists := ds.documents[uri]
	if !exists {
		return nil, fmt.Errorf("%s: %w", uri, ErrDocumentNotOpen)
	}

	return doc, nil
}

// protocolRange is a protocol-side range in UTF-16 positions.
type protocolRange struct {
	Start protocolPosition
	End   protocolPosition
}

// ApplyIncremental applies one ranged content change to the document.
func (ds *DocumentStore) ApplyIncremental(uri string, rng protocolRange, text string, version int32) error {
	doc, err := ds.get(uri)
	if err != nil {
		return err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	start, err := offsetForPosition(doc.buffer, rng.Start)
	if err != nil {
		return err
	}

	end, err := offsetForPosition(doc.buffer, rng.End)
	if err != nil {
		return err
	}

	if end > start {
		if err := doc.buffer.Delete(start, end-start); err != nil {
			return fmt.Errorf("apply change: %w", err)
		}
	}

	if len(text) > 0 {
		if err := doc.buffer.Insert(start, text); err != nil {
			return fmt.Errorf("apply change: %w", err)
		}
	}

	doc.version = version

	return nil
}

// ApplyFull replaces the document's content, converting the full-text sync
// into minimal engine edits instead of rebuilding the buffer.
func (ds *DocumentStore) ApplyFull(uri, text string, version int32) error {
	doc, err := ds.get(uri)
	if err != nil {
		return err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	edits := textdiff.Edits(doc.buffer.GetAllText(), text)
	if err := textdiff.Apply(doc.buffer, edits); err != nil {
		return fmt.Errorf("full sync: %w", err)
	}

	doc.version = version

	return nil
}

// Text returns the document's current content.
func (ds *DocumentStore) Text(uri string) (string, error) {
	doc, err := ds.get(uri)
	if err != nil {
		return "", err
	}

	doc.mu.RLock()
	defer doc.mu.RUnlock()

	return doc.buffer.GetAllText(), nil
}

// Stats describes one open document for the hover surface.
type Stats struct {
	Version    int32
	Bytes      int
	Lines      int
	Pieces     int
	TreeHeight int
}

// DocumentStats returns engine statistics for the URI.
func (ds *DocumentStore) DocumentStats(uri string) (Stats, error) {
	doc, err := ds.get(uri)
	if err != nil {
		return Stats{}, err
	}

	doc.mu.RLock()
	defer doc.mu.RUnlock()

	return Stats{
		Version:    doc.version,
		Bytes:      doc.buffer.Length(),
		Lines:      doc.buffer.LineCount(),
		Pieces:     doc.buffer.PieceCount(),
		TreeHeight: doc.buffer.TreeHeight(),
	}, nil
}

// LineContent returns one line of the document for position conversion.
func (ds *DocumentStore) LineContent(uri string, line int) (string, error) {
	doc, err := ds.get(uri)
	if err != nil {
		return "", err
	}

	doc.mu.RLock()
	defer doc.mu.RUnlock()

	content, err := doc.buffer.GetLineContent(line)
	if err != nil {
		return "", fmt.Errorf("%s: %w", uri, err)
	}

	return content, nil
}

// Validate audits the engine invariants of the URI's buffer.
func (ds *DocumentStore) Validate(uri string) error {
	doc, err := ds.get(uri)
	if err != nil {
		return err
	}

	doc.mu.RLock()
	defer doc.mu.RUnlock()

	if err := doc.buffer.Validate(); err != nil {
		return fmt.Errorf("%s: %w", uri, err)
	}

	return nil
}
