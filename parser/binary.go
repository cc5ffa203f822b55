package parser

import (
	"fmt"
	"math"

	"github.com/postforge/postforge/object"
)

// Binary token codes recognized in the 128..159 range. Binary object
// sequences (128..131) and system name tokens (145..146) are not decoded;
// they raise syntaxerror.
const (
	btInt32HO   = 132
	btInt32LO   = 133
	btInt16HO   = 134
	btInt16LO   = 135
	btInt8      = 136
	btFixed     = 137
	btReal32HO  = 138
	btReal32LO  = 139
	btRealNat   = 140
	btBool      = 141
	btString1   = 142
	btString2HO = 143
	btString2LO = 144
	btNumArray  = 149
)

func (tkn *Tokenizer) scanBinaryToken() (object.Object, error) {
	code := byte(tkn.lastChar)
	tkn.next()
	switch code {
	case btInt32HO, btInt32LO:
		b, err := tkn.takeBytes(4)
		if err != nil {
			return object.Object{}, err
		}
		return object.MakeInt(int64(int32(be32(b, code == btInt32LO)))), nil
	case btInt16HO, btInt16LO:
		b, err := tkn.takeBytes(2)
		if err != nil {
			return object.Object{}, err
		}
		return object.MakeInt(int64(int16(be16(b, code == btInt16LO)))), nil
	case btInt8:
		b, err := tkn.takeBytes(1)
		if err != nil {
			return object.Object{}, err
		}
		return object.MakeInt(int64(int8(b[0]))), nil
	case btFixed:
		rep, err := tkn.takeBytes(1)
		if err != nil {
			return object.Object{}, err
		}
		return tkn.scanFixed(rep[0])
	case btReal32HO, btReal32LO, btRealNat:
		b, err := tkn.takeBytes(4)
		if err != nil {
			return object.Object{}, err
		}
		bits := be32(b, code != btReal32HO)
		return object.MakeReal(float64(math.Float32frombits(bits))), nil
	case btBool:
		b, err := tkn.takeBytes(1)
		if err != nil {
			return object.Object{}, err
		}
		return object.MakeBool(b[0] != 0), nil
	case btString1:
		n, err := tkn.takeBytes(1)
		if err != nil {
			return object.Object{}, err
		}
		return tkn.takeString(int(n[0]))
	case btString2HO, btString2LO:
		n, err := tkn.takeBytes(2)
		if err != nil {
			return object.Object{}, err
		}
		return tkn.takeString(int(be16(n, code == btString2LO)))
	case btNumArray:
		return tkn.scanNumberArray()
	default:
		tkn.LastError = fmt.Errorf("unsupported binary token %d at position %d", code, tkn.Position)
		return object.Object{}, object.ErrSyntaxError
	}
}

func (tkn *Tokenizer) takeBytes(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if tkn.lastChar == eofChar {
			tkn.LastError = fmt.Errorf("truncated binary token at position %d", tkn.Position)
			return nil, object.ErrSyntaxError
		}
		out = append(out, byte(tkn.lastChar))
		tkn.next()
	}
	return out, nil
}

func (tkn *Tokenizer) takeString(n int) (object.Object, error) {
	b, err := tkn.takeBytes(n)
	if err != nil {
		return object.Object{}, err
	}
	return tkn.VM.NewStringFrom(b), nil
}

func be32(b []byte, lo bool) uint32 {
	if lo {
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
}

func be16(b []byte, lo bool) uint16 {
	if lo {
		return uint16(b[0]) | uint16(b[1])<<8
	}
	return uint16(b[1]) | uint16(b[0])<<8
}

// scanFixed decodes a fixed-point number. The representation byte selects
// width, byte order, and binary scale.
func (tkn *Tokenizer) scanFixed(rep byte) (object.Object, error) {
	var raw int64
	var scale uint
	switch {
	case rep < 32:
		b, err := tkn.takeBytes(4)
		if err != nil {
			return object.Object{}, err
		}
		raw, scale = int64(int32(be32(b, false))), uint(rep)
	case rep >= 32 && rep < 48:
		b, err := tkn.takeBytes(2)
		if err != nil {
			return object.Object{}, err
		}
		raw, scale = int64(int16(be16(b, false))), uint(rep-32)
	case rep >= 128 && rep < 160:
		b, err := tkn.takeBytes(4)
		if err != nil {
			return object.Object{}, err
		}
		raw, scale = int64(int32(be32(b, true))), uint(rep-128)
	case rep >= 160 && rep < 176:
		b, err := tkn.takeBytes(2)
		if err != nil {
			return object.Object{}, err
		}
		raw, scale = int64(int16(be16(b, true))), uint(rep-160)
	default:
		tkn.LastError = fmt.Errorf("bad fixed-point representation %d", rep)
		return object.Object{}, object.ErrSyntaxError
	}
	if scale == 0 {
		return object.MakeInt(raw), nil
	}
	return object.MakeReal(float64(raw) / float64(int64(1)<<scale)), nil
}

// scanNumberArray decodes a homogeneous number array into a literal array.
func (tkn *Tokenizer) scanNumberArray() (object.Object, error) {
	hdr, err := tkn.takeBytes(3)
	if err != nil {
		return object.Object{}, err
	}
	rep := hdr[0]
	lo := rep >= 128
	count := int(be16(hdr[1:3], lo))
	elems := make([]object.Object, 0, count)
	for i := 0; i < count; i++ {
		var o object.Object
		var err error
		switch {
		case rep%128 < 32:
			o, err = tkn.scanFixed(rep)
		case rep%128 < 48:
			o, err = tkn.scanFixed(rep)
		case rep%128 == 48:
			var b []byte
			b, err = tkn.takeBytes(4)
			if err == nil {
				o = object.MakeReal(float64(math.Float32frombits(be32(b, lo))))
			}
		default:
			tkn.LastError = fmt.Errorf("bad number array representation %d", rep)
			return object.Object{}, object.ErrSyntaxError
		}
		if err != nil {
			return object.Object{}, err
		}
		elems = append(elems, o)
	}
	return tkn.VM.NewArrayFrom(elems), nil
}
