// Package wire implements the msgpack-numpy ndarray convention used by
// contact-matrix predictors: a msgpack map carrying an array tag, a
// dtype descriptor, a shape list and a flat row-major byte buffer.
package wire

// #region imports
import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

// #endregion

// #region decode-error

// DecodeError reports a response payload that cannot be parsed into a
// numeric matrix of the expected rank and dtype.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode: " + e.Reason
}

func decodeErrorf(format string, args ...any) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// #endregion decode-error

// #region dtype

type dtype struct {
	order binary.ByteOrder
	kind  byte // 'f', 'i' or 'u'
	width int
}

// parseDType parses a numpy dtype string such as "<f8" or "|i1".
// Native order ('=' or no prefix) is read as little-endian, which is
// what every predictor host this evaluator has been run against emits.
func parseDType(s string) (dtype, error) {
	if s == "" {
		return dtype{}, decodeErrorf("empty dtype")
	}
	d := dtype{order: binary.LittleEndian}
	switch s[0] {
	case '<', '=', '|':
		s = s[1:]
	case '>':
		d.order = binary.BigEndian
		s = s[1:]
	}
	if len(s) < 2 {
		return dtype{}, decodeErrorf("malformed dtype %q", s)
	}
	switch s[0] {
	case 'f', 'i', 'u':
		d.kind = s[0]
	default:
		return dtype{}, decodeErrorf("unsupported dtype kind %q", s)
	}
	switch s[1:] {
	case "1":
		d.width = 1
	case "2":
		d.width = 2
	case "4":
		d.width = 4
	case "8":
		d.width = 8
	default:
		return dtype{}, decodeErrorf("unsupported dtype width %q", s)
	}
	if d.kind == 'f' && d.width < 4 {
		return dtype{}, decodeErrorf("unsupported float width in dtype %q", s)
	}
	return d, nil
}

func (d dtype) value(buf []byte) float64 {
	switch d.kind {
	case 'f':
		if d.width == 4 {
			return float64(math.Float32frombits(d.order.Uint32(buf)))
		}
		return math.Float64frombits(d.order.Uint64(buf))
	case 'i':
		switch d.width {
		case 1:
			return float64(int8(buf[0]))
		case 2:
			return float64(int16(d.order.Uint16(buf)))
		case 4:
			return float64(int32(d.order.Uint32(buf)))
		default:
			return float64(int64(d.order.Uint64(buf)))
		}
	default: // 'u'
		switch d.width {
		case 1:
			return float64(buf[0])
		case 2:
			return float64(d.order.Uint16(buf))
		case 4:
			return float64(d.order.Uint32(buf))
		default:
			return float64(d.order.Uint64(buf))
		}
	}
}

// #endregion dtype

// #region decode

// DecodeNDArray parses a msgpack-numpy payload into a dense square
// matrix. The payload must carry the ndarray tag, a two-dimensional
// square shape, a supported dtype and a data buffer of exactly
// rows*cols*width bytes; anything else is a DecodeError.
func DecodeNDArray(payload []byte) (*mat.Dense, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))

	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, decodeErrorf("payload is not a msgpack map: %v", err)
	}

	var (
		tagged bool
		typ    string
		shape  []int
		data   []byte
	)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return nil, decodeErrorf("map key %d: %v", i, err)
		}
		switch key {
		case "nd":
			if tagged, err = dec.DecodeBool(); err != nil {
				return nil, decodeErrorf("nd tag: %v", err)
			}
		case "type":
			if typ, err = dec.DecodeString(); err != nil {
				return nil, decodeErrorf("type field: %v", err)
			}
		case "shape":
			l, err := dec.DecodeArrayLen()
			if err != nil {
				return nil, decodeErrorf("shape field: %v", err)
			}
			shape = make([]int, l)
			for j := range shape {
				if shape[j], err = dec.DecodeInt(); err != nil {
					return nil, decodeErrorf("shape[%d]: %v", j, err)
				}
			}
		case "data":
			if data, err = dec.DecodeBytes(); err != nil {
				return nil, decodeErrorf("data field: %v", err)
			}
		default:
			// msgpack-numpy also emits "kind" and friends
			if err := dec.Skip(); err != nil {
				return nil, decodeErrorf("field %q: %v", key, err)
			}
		}
	}

	if !tagged {
		return nil, decodeErrorf("payload carries no ndarray tag")
	}
	if len(shape) != 2 {
		return nil, decodeErrorf("expected 2 dimensions, got %d", len(shape))
	}
	rows, cols := shape[0], shape[1]
	if rows <= 0 || cols <= 0 {
		return nil, decodeErrorf("non-positive shape %dx%d", rows, cols)
	}
	if rows != cols {
		return nil, decodeErrorf("contact matrix must be square, got %dx%d", rows, cols)
	}
	dt, err := parseDType(typ)
	if err != nil {
		return nil, err
	}
	if want := rows * cols * dt.width; len(data) != want {
		return nil, decodeErrorf("data buffer is %d bytes, want %d (%dx%d %s)",
			len(data), want, rows, cols, typ)
	}

	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			off := (i*cols + j) * dt.width
			m.Set(i, j, dt.value(data[off:off+dt.width]))
		}
	}
	return m, nil
}

// #endregion decode

// #region encode

// EncodeNDArray writes a dense matrix in the msgpack-numpy convention
// as little-endian float64. Finite values survive a round trip
// bit-exactly.
func EncodeNDArray(m *mat.Dense) ([]byte, error) {
	rows, cols := m.Dims()
	data := make([]byte, rows*cols*8)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			off := (i*cols + j) * 8
			binary.LittleEndian.PutUint64(data[off:], math.Float64bits(m.At(i, j)))
		}
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(4); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("nd"); err != nil {
		return nil, err
	}
	if err := enc.EncodeBool(true); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("type"); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("<f8"); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("shape"); err != nil {
		return nil, err
	}
	if err := enc.EncodeArrayLen(2); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt(int64(rows)); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt(int64(cols)); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("data"); err != nil {
		return nil, err
	}
	if err := enc.EncodeBytes(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// #endregion encode
