// Package parquetutils wraps parquet-go for the journal export path.
package parquetutils

import (
	"github.com/cockroachdb/errors"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// WriterConcurrency is the number of parallel column writers.
var WriterConcurrency int64 = 4

// WriteAll writes data to destFile and finalizes the parquet footer. The
// schema is derived from T's parquet struct tags.
func WriteAll[T any](destFile source.ParquetFile, data []T) error {
	w, err := writer.NewParquetWriter(destFile, new(T), WriterConcurrency)
	if err != nil {
		return errors.Wrap(err, "can't create parquet writer")
	}
	for i := range data {
		if err := w.Write(data[i]); err != nil {
			return errors.Wrapf(err, "failed to write parquet record %d", i)
		}
	}
	if err := w.WriteStop(); err != nil {
		return errors.Wrap(err, "failed to finalize parquet file")
	}
	return nil
}
