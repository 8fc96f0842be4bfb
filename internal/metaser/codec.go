package metaser

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// maxPrealloc ограничивает предвыделение по длинам из недоверенного входа.
const maxPrealloc = 1 << 10

// Encoder wraps msgpack.Encoder with a sticky error so codecs can write
// field after field and check once.
type Encoder struct {
	enc *msgpack.Encoder
	err error
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: msgpack.NewEncoder(w)}
}

func (e *Encoder) Err() error { return e.err }

func (e *Encoder) fail(err error) {
	if e.err == nil && err != nil {
		e.err = err
	}
}

func (e *Encoder) Int(v int) {
	if e.err == nil {
		e.fail(e.enc.EncodeInt(int64(v)))
	}
}

func (e *Encoder) Uint8(v uint8) {
	if e.err == nil {
		e.fail(e.enc.EncodeUint8(v))
	}
}

func (e *Encoder) Uint32(v uint32) {
	if e.err == nil {
		e.fail(e.enc.EncodeUint32(v))
	}
}

func (e *Encoder) Bool(v bool) {
	if e.err == nil {
		e.fail(e.enc.EncodeBool(v))
	}
}

func (e *Encoder) Str(s string) {
	if e.err == nil {
		e.fail(e.enc.EncodeString(s))
	}
}

// Len writes a collection length header.
func (e *Encoder) Len(n int) {
	if e.err == nil {
		e.fail(e.enc.EncodeArrayLen(n))
	}
}

func (e *Encoder) Strings(values []string) {
	e.Len(len(values))
	for _, s := range values {
		e.Str(s)
	}
}

// Decoder is the reading counterpart of Encoder.
type Decoder struct {
	dec *msgpack.Decoder
	err error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: msgpack.NewDecoder(r)}
}

func (d *Decoder) Err() error { return d.err }

// Fail records err unless an earlier error is already recorded.
func (d *Decoder) Fail(err error) {
	if d.err == nil && err != nil {
		d.err = err
	}
}

func (d *Decoder) Int() int {
	if d.err != nil {
		return 0
	}
	v, err := d.dec.DecodeInt()
	d.Fail(err)
	return v
}

// Count reads a non-negative integer such as a line or an offset.
func (d *Decoder) Count() int {
	v := d.Int()
	if v < 0 {
		d.Fail(fmt.Errorf("negative value %d", v))
		return 0
	}
	return v
}

func (d *Decoder) Uint8() uint8 {
	if d.err != nil {
		return 0
	}
	v, err := d.dec.DecodeUint8()
	d.Fail(err)
	return v
}

func (d *Decoder) Uint32() uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.dec.DecodeUint32()
	d.Fail(err)
	return v
}

func (d *Decoder) Bool() bool {
	if d.err != nil {
		return false
	}
	v, err := d.dec.DecodeBool()
	d.Fail(err)
	return v
}

func (d *Decoder) Str() string {
	if d.err != nil {
		return ""
	}
	v, err := d.dec.DecodeString()
	d.Fail(err)
	return v
}

// Len reads a collection length header; nil arrays read as zero.
func (d *Decoder) Len() int {
	if d.err != nil {
		return 0
	}
	n, err := d.dec.DecodeArrayLen()
	d.Fail(err)
	if n < 0 {
		return 0
	}
	return n
}

func (d *Decoder) Strings() []string {
	n := d.Len()
	out := make([]string, 0, capHint(n))
	for range n {
		if d.err != nil {
			return nil
		}
		out = append(out, d.Str())
	}
	return out
}

func capHint(n int) int {
	return min(n, maxPrealloc)
}
