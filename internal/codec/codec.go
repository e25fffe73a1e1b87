// Package codec reads and writes the length-prefixed binary doc-value layout
// that holds float64 vectors.
//
// A blob is a uvarint value count followed by that many entries, each a
// uvarint byte length and the raw bytes. The first entry is the vector; any
// further entries are skipped.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Float64Size is the encoded size of one vector component.
const Float64Size = 8

var (
	// ErrNoValues is returned when a blob declares zero stored values.
	ErrNoValues = errors.New("doc value holds no values")
	// ErrMalformedValue is returned when a blob is truncated or its prefixes overflow.
	ErrMalformedValue = errors.New("malformed doc value")
	// ErrInvalidVector is returned when an external vector cannot be parsed.
	ErrInvalidVector = errors.New("invalid vector")
)

// ShapeMismatchError reports a document vector whose length differs from the query vector.
type ShapeMismatchError struct {
	Expected   int
	Actual     int
	ByteLength int
	// DocID is -1 when the document is unknown to the caller.
	DocID int
}

func (e *ShapeMismatchError) Error() string {
	msg := fmt.Sprintf("input vector length [%d] differs from document vector length [%d]", e.Expected, e.Actual)
	if e.ByteLength%Float64Size != 0 {
		msg = fmt.Sprintf("input vector length [%d] differs from document value of %d bytes, not a whole number of doubles",
			e.Expected, e.ByteLength)
	}
	if e.DocID >= 0 {
		msg += fmt.Sprintf(" for doc %d", e.DocID)
	}
	return msg
}

// Codec decodes and encodes vectors with a fixed byte order for the float64 components.
type Codec struct {
	Order binary.ByteOrder
}

// Default is the big-endian layout written by JVM hosts.
var Default = Codec{Order: binary.BigEndian}

// LittleEndian is the layout for hosts that store little-endian doubles.
var LittleEndian = Codec{Order: binary.LittleEndian}

// ForByteOrder returns the codec for "big" or "little".
func ForByteOrder(name string) (Codec, error) {
	switch name {
	case "", "big", "big_endian":
		return Default, nil
	case "little", "little_endian":
		return LittleEndian, nil
	default:
		return Codec{}, fmt.Errorf("unknown byte order %q", name)
	}
}

// Name returns "big" or "little".
func (c Codec) Name() string {
	if c.order() == binary.LittleEndian {
		return "little"
	}
	return "big"
}

func (c Codec) order() binary.ByteOrder {
	if c.Order == nil {
		return binary.BigEndian
	}
	return c.Order
}

// Decode extracts the first value of blob as a vector of expected components.
// The result reuses dst when it has enough capacity.
func (c Codec) Decode(blob []byte, expected int, dst []float64) ([]float64, error) {
	count, pos, err := readUvarint(blob, 0)
	if err != nil {
		return dst[:0], fmt.Errorf("read value count: %w", err)
	}
	if count == 0 {
		return dst[:0], ErrNoValues
	}
	byteLen, pos, err := readLength(blob, pos)
	if err != nil {
		return dst[:0], fmt.Errorf("read first value length: %w", err)
	}
	if byteLen != expected*Float64Size {
		return dst[:0], &ShapeMismatchError{
			Expected:   expected,
			Actual:     byteLen / Float64Size,
			ByteLength: byteLen,
			DocID:      -1,
		}
	}
	start := pos
	pos += byteLen

	for i := uint64(1); i < count; i++ {
		n, next, err := readLength(blob, pos)
		if err != nil {
			return dst[:0], fmt.Errorf("read value %d length: %w", i, err)
		}
		pos = next + n
	}

	if cap(dst) < expected {
		dst = make([]float64, expected)
	}
	dst = dst[:expected]
	order := c.order()
	for i := range dst {
		off := start + i*Float64Size
		dst[i] = math.Float64frombits(order.Uint64(blob[off : off+Float64Size]))
	}
	return dst, nil
}

// Encode writes vectors in the doc-value layout, first vector first.
func (c Codec) Encode(vectors ...[]float64) []byte {
	raw := make([][]byte, len(vectors))
	for i, v := range vectors {
		raw[i] = c.VectorBytes(v)
	}
	return EncodeRaw(raw...)
}

// EncodeRaw writes already-encoded values in the doc-value layout.
func EncodeRaw(values ...[]byte) []byte {
	size := binary.MaxVarintLen64
	for _, v := range values {
		size += binary.MaxVarintLen64 + len(v)
	}
	out := make([]byte, 0, size)
	out = binary.AppendUvarint(out, uint64(len(values)))
	for _, v := range values {
		out = binary.AppendUvarint(out, uint64(len(v)))
		out = append(out, v...)
	}
	return out
}

// VectorBytes returns the raw component bytes of v.
func (c Codec) VectorBytes(v []float64) []byte {
	out := make([]byte, len(v)*Float64Size)
	order := c.order()
	for i, f := range v {
		order.PutUint64(out[i*Float64Size:], math.Float64bits(f))
	}
	return out
}

// ParseVector reads raw component bytes as produced by VectorBytes.
func (c Codec) ParseVector(raw []byte) ([]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty vector: %w", ErrInvalidVector)
	}
	if len(raw)%Float64Size != 0 {
		return nil, fmt.Errorf("vector byte length %d is not a multiple of %d: %w", len(raw), Float64Size, ErrInvalidVector)
	}
	out := make([]float64, len(raw)/Float64Size)
	order := c.order()
	for i := range out {
		out[i] = math.Float64frombits(order.Uint64(raw[i*Float64Size:]))
	}
	return out, nil
}

// ParseBase64Vector decodes the external encoded_vector form.
func (c Codec) ParseBase64Vector(s string) ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %v: %w", err, ErrInvalidVector)
	}
	return c.ParseVector(raw)
}

// FormatBase64Vector is the inverse of ParseBase64Vector.
func (c Codec) FormatBase64Vector(v []float64) string {
	return base64.StdEncoding.EncodeToString(c.VectorBytes(v))
}

func readUvarint(blob []byte, pos int) (uint64, int, error) {
	if pos >= len(blob) {
		return 0, pos, fmt.Errorf("unexpected end of value at offset %d: %w", pos, ErrMalformedValue)
	}
	v, n := binary.Uvarint(blob[pos:])
	if n == 0 {
		return 0, pos, fmt.Errorf("truncated varint at offset %d: %w", pos, ErrMalformedValue)
	}
	if n < 0 {
		return 0, pos, fmt.Errorf("varint overflow at offset %d: %w", pos, ErrMalformedValue)
	}
	return v, pos + n, nil
}

// readLength reads a length prefix and checks that the value it announces fits in blob.
func readLength(blob []byte, pos int) (int, int, error) {
	n, next, err := readUvarint(blob, pos)
	if err != nil {
		return 0, pos, err
	}
	if n > uint64(len(blob)-next) {
		return 0, pos, fmt.Errorf("value length %d at offset %d exceeds remaining %d bytes: %w", n, pos, len(blob)-next, ErrMalformedValue)
	}
	return int(n), next, nil
}
