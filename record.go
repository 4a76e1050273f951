package opengtap

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// recordPadding is the four-byte ASCII filler that opens the header record
// of every array.
const recordPadding = "    "

// maxStringRecordBytes bounds the payload of one 1C value record, matching
// the historical Fortran buffer size. The bound applies only when the
// array does not fix its serialized-vector count.
const maxStringRecordBytes = 32764

// maxSparseChunk bounds the number of index/value pairs in one sparse data
// record so the payload stays inside the historical Fortran buffer.
const maxSparseChunk = 4000

// recordReader reads Fortran unformatted records: a little-endian int32
// length, the payload and a terminating copy of the length. The two length
// fields are the sole synchronization mechanism in the stream.
type recordReader struct {
	r io.Reader
}

// newRecordReader creates a record reader over the byte stream.
func newRecordReader(r io.Reader) *recordReader {
	return &recordReader{r: r}
}

// next reads one record. A clean end of stream at a record boundary is
// io.EOF; an end of stream inside a record is ErrUnexpectedEOF.
func (rr *recordReader) next() ([]byte, error) {
	var lead [4]byte
	if _, err := io.ReadFull(rr.r, lead[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: reading record length", ErrUnexpectedEOF)
	}
	length := int32(binary.LittleEndian.Uint32(lead[:]))
	if length < 0 {
		return nil, fmt.Errorf("%w: negative record length %d", ErrInvalidData, length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(rr.r, payload); err != nil {
		return nil, fmt.Errorf("%w: reading record payload", ErrUnexpectedEOF)
	}

	var tail [4]byte
	if _, err := io.ReadFull(rr.r, tail[:]); err != nil {
		return nil, fmt.Errorf("%w: reading terminating record length", ErrUnexpectedEOF)
	}
	if terminating := int32(binary.LittleEndian.Uint32(tail[:])); terminating != length {
		return nil, fmt.Errorf("%w: initiating and terminating lengths do not match", ErrInvalidData)
	}
	return payload, nil
}

// mustNext reads the next record of an array already in progress, where a
// clean end of stream is as fatal as a truncated record.
func (rr *recordReader) mustNext() ([]byte, error) {
	payload, err := rr.next()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: stream ended mid-array", ErrUnexpectedEOF)
	}
	return payload, err
}

// stripPadding validates and removes the four-byte ASCII padding that
// opens a padded payload.
func stripPadding(payload []byte) ([]byte, error) {
	if len(payload) < len(recordPadding) || string(payload[:len(recordPadding)]) != recordPadding {
		return nil, fmt.Errorf("%w: failed to find expected padding", ErrInvalidData)
	}
	return payload[len(recordPadding):], nil
}

// recordWriter emits Fortran unformatted records.
type recordWriter struct {
	w io.Writer
}

// newRecordWriter creates a record writer over the byte stream.
func newRecordWriter(w io.Writer) *recordWriter {
	return &recordWriter{w: w}
}

// write emits one record: length, payload, terminating length.
func (rw *recordWriter) write(payload []byte) error {
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(payload)))
	if _, err := rw.w.Write(length[:]); err != nil {
		return fmt.Errorf("failed to write record length: %w", err)
	}
	if _, err := rw.w.Write(payload); err != nil {
		return fmt.Errorf("failed to write record payload: %w", err)
	}
	if _, err := rw.w.Write(length[:]); err != nil {
		return fmt.Errorf("failed to write terminating record length: %w", err)
	}
	return nil
}

// getInt32 reads a little-endian int32 at the given byte offset.
func getInt32(payload []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(payload[offset : offset+4]))
}

// getFloat32 reads a little-endian IEEE-754 float32 at the given byte
// offset.
func getFloat32(payload []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(payload[offset : offset+4]))
}

// appendInt32 appends a little-endian int32.
func appendInt32(payload []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(payload, uint32(v))
}

// appendFloat32 appends a little-endian IEEE-754 float32.
func appendFloat32(payload []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(payload, math.Float32bits(v))
}
