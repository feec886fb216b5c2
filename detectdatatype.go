package sxfst

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
	DataTypeZlib
)

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
	DataTypeZlib:  {0x78, 0x9c},
}

// DetectDataType attempts to detect the data type of a stream from its leading
// bytes. Byte code signatures from https://stackoverflow.com/a/19127748/199475
func DetectDataType(head []byte) DataType {
Outer:
	for dt, sig := range byteCodeSigs {
		if len(head) < len(sig) {
			continue
		}
		for position := range sig {
			if head[position] != sig[position] {
				continue Outer
			}
		}
		return dt
	}

	return DataTypeNoCompression
}

// MaybeDecompress wraps rc with a decompressor if its leading bytes match a
// known compression signature. Plate exports are usually plain CSV, but
// archived runs are often stored gzipped or zipped. Closing the returned
// reader closes rc. If no reader is returned, rc has already been closed.
func MaybeDecompress(rc io.ReadCloser) (io.ReadCloser, error) {
	out, err := decompress(rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return out, nil
}

func decompress(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	head, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	switch DetectDataType(head) {
	case DataTypeGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: gz, close: rc.Close}, nil
	case DataTypeZip:
		zr := zipstream.NewReader(br)
		// Only the first member of the archive is read.
		if _, err := zr.Next(); err != nil {
			return nil, err
		}
		return &readCloser{Reader: zr, close: rc.Close}, nil
	case DataTypeBZip2:
		return &readCloser{Reader: bzip2.NewReader(br), close: rc.Close}, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: reader, close: rc.Close}, nil
	case DataTypeZ:
		return nil, fmt.Errorf("unix compress (.Z) streams are not supported")
	case DataTypeZlib:
		zl, err := zlib.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: zl, close: rc.Close}, nil
	}

	// No data type detected. For now, we assume this is uncompressed.
	return &readCloser{Reader: br, close: rc.Close}, nil
}

// readCloser "upgrades" a decompressing reader so that closing it closes the
// underlying source.
type readCloser struct {
	io.Reader
	close func() error
}

func (c *readCloser) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}
