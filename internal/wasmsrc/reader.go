package wasmsrc

import (
	"bufio"
	"bytes"
	"io"
	"math"

	"github.com/rwasm-labs/rwasm/internal/compileerr"
	"github.com/rwasm-labs/rwasm/internal/leb128"
)

// byteReader wraps an io.Reader with the LEB128 and fixed-width primitives
// every section decoder needs, translating the low-level io/leb128 errors
// into compileerr.Error with a bit of context so a malformed module reports
// which field it choked on.
type byteReader struct {
	r *bufio.Reader
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: bufio.NewReader(r)}
}

func newByteReaderFromBytes(b []byte) *byteReader {
	return &byteReader{r: bufio.NewReader(bytes.NewReader(b))}
}

func (br *byteReader) tryReadByte() (byte, bool, error) {
	b, err := br.r.ReadByte()
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, compileerr.New(compileerr.MalformedInput, "unexpected read error")
	}
	return b, true, nil
}

func (br *byteReader) readByte(what string) (byte, error) {
	b, err := br.r.ReadByte()
	if err != nil {
		return 0, compileerr.New(compileerr.MalformedInput, "truncated "+what)
	}
	return b, nil
}

func (br *byteReader) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		return nil, compileerr.New(compileerr.MalformedInput, "truncated section body")
	}
	return buf, nil
}

func (br *byteReader) readU32Leb(what string) (uint32, error) {
	v, _, err := leb128.DecodeUint32(br.r)
	if err != nil {
		return 0, compileerr.New(compileerr.MalformedInput, "bad varint: "+what)
	}
	return v, nil
}

func (br *byteReader) readU64Leb(what string) (uint64, error) {
	v, _, err := leb128.DecodeUint64(br.r)
	if err != nil {
		return 0, compileerr.New(compileerr.MalformedInput, "bad varint: "+what)
	}
	return v, nil
}

func (br *byteReader) readI32Leb(what string) (int32, error) {
	v, _, err := leb128.DecodeInt32(br.r)
	if err != nil {
		return 0, compileerr.New(compileerr.MalformedInput, "bad varint: "+what)
	}
	return v, nil
}

func (br *byteReader) readI64Leb(what string) (int64, error) {
	v, _, err := leb128.DecodeInt64(br.r)
	if err != nil {
		return 0, compileerr.New(compileerr.MalformedInput, "bad varint: "+what)
	}
	return v, nil
}

func (br *byteReader) readF32() (float32, error) {
	b, err := br.readN(4)
	if err != nil {
		return 0, err
	}
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits), nil
}

func (br *byteReader) readF64() (float64, error) {
	b, err := br.readN(8)
	if err != nil {
		return 0, err
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(b[i]) << (8 * i)
	}
	return math.Float64frombits(bits), nil
}

func (br *byteReader) readString(what string) (string, error) {
	n, err := br.readU32Leb(what + " length")
	if err != nil {
		return "", err
	}
	b, err := br.readN(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (br *byteReader) readValType(what string) (ValType, error) {
	b, err := br.readByte(what)
	if err != nil {
		return 0, err
	}
	switch ValType(b) {
	case ValI32, ValI64, ValF32, ValF64, ValFuncRef, ValExternRef:
		return ValType(b), nil
	default:
		return 0, compileerr.New(compileerr.UnsupportedLocalType, what)
	}
}

func (br *byteReader) readLimits(what string) (Limits, error) {
	flag, err := br.readByte(what + " flags")
	if err != nil {
		return Limits{}, err
	}
	min, err := br.readU32Leb(what + " min")
	if err != nil {
		return Limits{}, err
	}
	l := Limits{Min: min}
	if flag&0x01 != 0 {
		max, err := br.readU32Leb(what + " max")
		if err != nil {
			return Limits{}, err
		}
		l.Max, l.HasMax = max, true
	}
	return l, nil
}
