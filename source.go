package sxfst

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"cloud.google.com/go/storage"
)

type sourceKind byte

const (
	sourceInvalid sourceKind = iota
	sourcePath
	sourceBytes
	sourceReader
)

// Source is one raw input: a path (local or gs://), an in-memory copy of a
// file, or a stream. Callers choose the shape once, when they construct the
// Source, and every reader in this module accepts a Source rather than
// re-inspecting what it was handed.
type Source struct {
	kind sourceKind
	name string
	data []byte
	r    io.Reader
}

// SourcePath refers to a file on disk or, with a storage client, a gs:// object.
func SourcePath(path string) Source {
	return Source{kind: sourcePath, name: path}
}

// SourceBytes wraps data that is already in memory. The name is only used in
// diagnostics.
func SourceBytes(name string, data []byte) Source {
	return Source{kind: sourceBytes, name: name, data: data}
}

// SourceReader wraps a stream. It can be opened only once.
func SourceReader(name string, r io.Reader) Source {
	return Source{kind: sourceReader, name: name, r: r}
}

// Name is the path, or the label given to an in-memory source.
func (s Source) Name() string {
	return s.name
}

// IsPath reports whether the source refers to a file or object by path.
func (s Source) IsPath() bool {
	return s.kind == sourcePath
}

// Open returns a reader over the (possibly decompressed) contents of the
// source. client may be nil unless the source is a gs:// path.
func (s Source) Open(ctx context.Context, client *storage.Client) (io.ReadCloser, error) {
	var rc io.ReadCloser

	switch s.kind {
	case sourcePath:
		f, err := OpenPath(ctx, s.name, client)
		if err != nil {
			return nil, err
		}
		rc = f
	case sourceBytes:
		rc = ioutil.NopCloser(bytes.NewReader(s.data))
	case sourceReader:
		if s.r == nil {
			return nil, fmt.Errorf("source %q has no reader", s.name)
		}
		rc = ioutil.NopCloser(s.r)
	default:
		return nil, fmt.Errorf("source %q is not initialized", s.name)
	}

	return MaybeDecompress(rc)
}

// ReadAll opens the source and reads it to the end.
func (s Source) ReadAll(ctx context.Context, client *storage.Client) ([]byte, error) {
	rc, err := s.Open(ctx, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ioutil.ReadAll(rc)
}

// ReadHead opens the source and reads at most n bytes.
func (s Source) ReadHead(ctx context.Context, client *storage.Client, n int64) ([]byte, error) {
	rc, err := s.Open(ctx, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ioutil.ReadAll(io.LimitReader(rc, n))
}

// IsGoogleStoragePath reports whether path names a gs:// object.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}
