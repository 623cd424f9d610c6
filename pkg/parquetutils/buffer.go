package parquetutils

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/source"
)

var _ source.ParquetFile = (*Buffer)(nil)

// Buffer is an in-memory parquet destination. The journal export writes the
// whole archive here, then ships the bytes to a local file or S3.
type Buffer struct {
	underlying *parquetbuffer.BufferFile
}

// NewBuffer creates an empty in-memory parquet buffer.
func NewBuffer() *Buffer {
	return &Buffer{underlying: parquetbuffer.NewBufferFile()}
}

// NewBufferFrom wraps s without copying it.
func NewBufferFrom(s []byte) *Buffer {
	return &Buffer{underlying: parquetbuffer.NewBufferFileFromBytesNoAlloc(s)}
}

func (b *Buffer) Create(string) (source.ParquetFile, error) {
	return NewBuffer(), nil
}

func (b *Buffer) Open(string) (source.ParquetFile, error) {
	return NewBufferFrom(b.Bytes()), nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	return b.underlying.Seek(offset, whence)
}

func (b *Buffer) Read(p []byte) (n int, err error) {
	return b.underlying.Read(p)
}

func (b *Buffer) Write(p []byte) (n int, err error) {
	return b.underlying.Write(p)
}

func (b *Buffer) Close() error {
	return b.underlying.Close()
}

// Bytes returns the written archive. Only meaningful after WriteAll has
// finalized the file.
func (b *Buffer) Bytes() []byte {
	return b.underlying.Bytes()
}
