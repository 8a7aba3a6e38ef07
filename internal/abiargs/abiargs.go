// Package abiargs turns a single comma-separated argument string into the
// typed Go values go-ethereum's ABI packer expects.
//
// The batch file formats carried over from the original tool give every job
// exactly one string field for its call/constructor arguments rather than a
// typed array, so the coercion step has to happen at dispatch time against
// the target function or constructor's ABI types.
package abiargs

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Parse splits argsCSV on commas, trims whitespace from each token, and
// coerces it into the Go value abi.Arguments.Pack expects for the
// corresponding types entry. An empty (after trimming) argsCSV yields a nil
// slice, matching a no-argument call or constructor.
//
// len(types) must equal the number of comma-separated tokens; a mismatch is
// reported rather than silently truncated or zero-padded.
func Parse(argsCSV string, types []abi.Type) ([]interface{}, error) {
	argsCSV = strings.TrimSpace(argsCSV)
	if argsCSV == "" {
		return nil, nil
	}

	tokens := strings.Split(argsCSV, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	if len(tokens) != len(types) {
		return nil, fmt.Errorf("abiargs: expected %d argument(s), got %d", len(types), len(tokens))
	}

	values := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		v, err := coerce(tok, types[i])
		if err != nil {
			return nil, fmt.Errorf("abiargs: argument %d (%s): %w", i, types[i].String(), err)
		}
		values[i] = v
	}

	return values, nil
}

func coerce(tok string, t abi.Type) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(tok) {
			return nil, fmt.Errorf("%q is not a valid address", tok)
		}
		return common.HexToAddress(tok), nil

	case abi.BoolTy:
		return strconv.ParseBool(tok)

	case abi.IntTy:
		return coerceInt(tok, t.Size, true)

	case abi.UintTy:
		return coerceInt(tok, t.Size, false)

	case abi.StringTy:
		return tok, nil

	case abi.BytesTy:
		return decodeHexBytes(tok)

	case abi.FixedBytesTy:
		raw, err := decodeHexBytes(tok)
		if err != nil {
			return nil, err
		}
		if len(raw) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(raw))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(raw))
		return arr.Interface(), nil

	default:
		return nil, fmt.Errorf("unsupported ABI type kind %d (%s)", t.T, t.String())
	}
}

// coerceInt returns the Go value go-ethereum's packer expects for an
// int/uint ABI type of the given bit size. This mirrors go-ethereum's own
// reflectIntType exactly: only the four standard widths (8/16/32/64) get a
// native fixed-width Go type; every other width — including the in-between
// ones like int24 or uint40 that Solidity allows but Go has no native type
// for — packs as *big.Int, the same as anything over 64 bits.
func coerceInt(tok string, size int, signed bool) (interface{}, error) {
	if size != 8 && size != 16 && size != 32 && size != 64 {
		n, ok := new(big.Int).SetString(tok, 10)
		if !ok {
			return nil, fmt.Errorf("%q is not a valid integer", tok)
		}
		if !signed && n.Sign() < 0 {
			return nil, fmt.Errorf("%q is not a valid unsigned integer", tok)
		}
		return n, nil
	}

	if signed {
		n, err := strconv.ParseInt(tok, 10, size)
		if err != nil {
			return nil, err
		}
		switch size {
		case 8:
			return int8(n), nil
		case 16:
			return int16(n), nil
		case 32:
			return int32(n), nil
		default:
			return n, nil
		}
	}

	n, err := strconv.ParseUint(tok, 10, size)
	if err != nil {
		return nil, err
	}
	switch size {
	case 8:
		return uint8(n), nil
	case 16:
		return uint16(n), nil
	case 32:
		return uint32(n), nil
	default:
		return n, nil
	}
}

func decodeHexBytes(tok string) ([]byte, error) {
	tok = strings.TrimPrefix(tok, "0x")
	if len(tok)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string %q", tok)
	}
	out := make([]byte, len(tok)/2)
	for i := range out {
		b, err := strconv.ParseUint(tok[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte at offset %d: %w", i, err)
		}
		out[i] = byte(b)
	}
	return out, nil
}
