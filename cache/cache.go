// Package cache content-addresses a parse result so a long-running caller
// (the CLI's watch subcommand) can tell whether reparsing a file actually
// changed anything worth reporting, without keeping the full tree around.
//
// Uses a fixed binary preamble (magic, version, flags, body length)
// framing a canonical-CBOR body, identified by a blake2b-256 content hash.
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/vela-lang/vela/parse"
	"github.com/vela-lang/vela/syntax"
	"github.com/vela-lang/vela/token"
)

const (
	magic   = "VELA"
	version = uint16(1)
)

// Flags is reserved for future cache formats (e.g. compressed bodies).
type Flags uint16

// Hash returns the BLAKE2b-256 content hash of src. This is the cache key:
// two parses of byte-identical source always hash identically regardless
// of when or where they ran.
func Hash(src []byte) [32]byte {
	return blake2b.Sum256(src)
}

// DiagnosticSummary is the canonical-encoded shape of one syntax.Diagnostic.
type DiagnosticSummary struct {
	Message   string          `cbor:"message"`
	Severity  syntax.Severity `cbor:"severity"`
	FirstByte int             `cbor:"first_byte"`
	LastByte  int             `cbor:"last_byte"`
}

// Summary is everything about a parse.Result worth comparing across runs:
// the diagnostics in full (a changed message or range is a real change)
// and the root node's immediate child Kinds (a cheap proxy for "did the
// top-level shape of the tree change" without paying to encode the whole
// tree on every keystroke).
type Summary struct {
	SourceHash  [32]byte            `cbor:"source_hash"`
	RootKind    token.Kind          `cbor:"root_kind"`
	ChildKinds  []token.Kind        `cbor:"child_kinds"`
	Diagnostics []DiagnosticSummary `cbor:"diagnostics"`
}

// Summarize builds a Summary from a parse.Result over src.
func Summarize(src []byte, result parse.Result) Summary {
	s := Summary{
		SourceHash:  Hash(src),
		Diagnostics: make([]DiagnosticSummary, len(result.Diagnostics)),
	}
	if result.Tree != nil {
		s.RootKind = result.Tree.Head.Kind
		s.ChildKinds = make([]token.Kind, len(result.Tree.Children))
		for i, child := range result.Tree.Children {
			s.ChildKinds[i] = child.Head.Kind
		}
	}
	for i, d := range result.Diagnostics {
		s.Diagnostics[i] = DiagnosticSummary{
			Message:   d.Message,
			Severity:  d.Severity,
			FirstByte: d.FirstByte,
			LastByte:  d.LastByte,
		}
	}
	return s
}

// Equal reports whether two summaries describe an unchanged parse result:
// same source, same top-level shape, same diagnostics.
func (s Summary) Equal(other Summary) bool {
	buf, err := s.marshal()
	if err != nil {
		return false
	}
	otherBuf, err := other.marshal()
	if err != nil {
		return false
	}
	return bytes.Equal(buf, otherBuf)
}

func (s Summary) marshal() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cache: build CBOR encoder: %w", err)
	}
	return encMode.Marshal(s)
}

// Encode writes s to w as MAGIC(4) | VERSION(2) | FLAGS(2) | BODY_LEN(4) |
// BODY, where BODY is s's canonical CBOR encoding.
func Encode(w io.Writer, s Summary) error {
	body, err := s.marshal()
	if err != nil {
		return err
	}

	var preamble bytes.Buffer
	preamble.WriteString(magic)
	if err := binary.Write(&preamble, binary.LittleEndian, version); err != nil {
		return err
	}
	if err := binary.Write(&preamble, binary.LittleEndian, uint16(0)); err != nil {
		return err
	}
	if err := binary.Write(&preamble, binary.LittleEndian, uint32(len(body))); err != nil {
		return err
	}

	if _, err := w.Write(preamble.Bytes()); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// Decode reads a Summary previously written by Encode.
func Decode(r io.Reader) (Summary, error) {
	var preamble [12]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return Summary{}, fmt.Errorf("cache: read preamble: %w", err)
	}
	if string(preamble[0:4]) != magic {
		return Summary{}, fmt.Errorf("cache: bad magic %q", preamble[0:4])
	}
	if got := binary.LittleEndian.Uint16(preamble[4:6]); got != version {
		return Summary{}, fmt.Errorf("cache: unsupported version %d", got)
	}
	bodyLen := binary.LittleEndian.Uint32(preamble[8:12])

	const maxBodyLen = 16 * 1024 * 1024
	if bodyLen > maxBodyLen {
		return Summary{}, fmt.Errorf("cache: body length %d exceeds maximum %d", bodyLen, maxBodyLen)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return Summary{}, fmt.Errorf("cache: read body: %w", err)
	}

	var s Summary
	if err := cbor.Unmarshal(body, &s); err != nil {
		return Summary{}, fmt.Errorf("cache: decode body: %w", err)
	}
	return s, nil
}

// Store tracks the last-seen Summary per path for a running watch loop.
// It is safe for concurrent use by multiple fsnotify event handlers.
type Store struct {
	mu      sync.Mutex
	entries map[string]Summary
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]Summary)}
}

// Update records summary for path and reports whether it differs from
// whatever was previously recorded there (a first sighting always counts
// as changed).
func (s *Store) Update(path string, summary Summary) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.entries[path]
	s.entries[path] = summary
	return !ok || !prev.Equal(summary)
}
