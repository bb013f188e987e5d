package rowstore

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Type names reported by TypeOf.
const (
	TypeNull      = "null"
	TypeString    = "string"
	TypeNumber    = "number"
	TypeBoolean   = "boolean"
	TypeBigInt    = "bigint"
	TypeBytes     = "bytes"
	TypeTimestamp = "timestamp"
	TypeObject    = "object"
)

// TypeOf names the runtime type of a decoded value.
func TypeOf(v any) string {
	switch v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return TypeNumber
	case *big.Int:
		return TypeBigInt
	case []byte:
		return TypeBytes
	case time.Time:
		return TypeTimestamp
	default:
		return TypeObject
	}
}

// Display renders a value as text. It is the single stringification rule
// shared by filtering, sorting and the grid: nil becomes "", structured
// values are serialized as JSON (map keys sorted), everything else uses its
// natural textual form.
func Display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case json.Number:
		return x.String()
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// number is a numeric value widened for comparison. Machine integers and
// floats compare directly; big integers and decimal strings keep an exact
// rational form.
type number struct {
	kind numKind
	i    int64
	f    float64
	r    *big.Rat
}

type numKind uint8

const (
	numInt numKind = iota
	numFloat
	numExact
)

func asNumber(v any) (number, bool) {
	switch x := v.(type) {
	case int:
		return number{kind: numInt, i: int64(x)}, true
	case int8:
		return number{kind: numInt, i: int64(x)}, true
	case int16:
		return number{kind: numInt, i: int64(x)}, true
	case int32:
		return number{kind: numInt, i: int64(x)}, true
	case int64:
		return number{kind: numInt, i: x}, true
	case uint:
		return asUnsigned(uint64(x)), true
	case uint8:
		return number{kind: numInt, i: int64(x)}, true
	case uint16:
		return number{kind: numInt, i: int64(x)}, true
	case uint32:
		return number{kind: numInt, i: int64(x)}, true
	case uint64:
		return asUnsigned(x), true
	case float32:
		return number{kind: numFloat, f: float64(x)}, true
	case float64:
		return number{kind: numFloat, f: x}, true
	case *big.Int:
		if x == nil {
			return number{}, false
		}
		if x.IsInt64() {
			return number{kind: numInt, i: x.Int64()}, true
		}
		return number{kind: numExact, r: new(big.Rat).SetInt(x)}, true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return number{kind: numInt, i: i}, true
		}
		if r, ok := new(big.Rat).SetString(x.String()); ok {
			return number{kind: numExact, r: r}, true
		}
	}
	return number{}, false
}

func asUnsigned(u uint64) number {
	if u > math.MaxInt64 {
		return number{kind: numExact, r: new(big.Rat).SetUint64(u)}
	}
	return number{kind: numInt, i: int64(u)}
}

func (n number) float() float64 {
	if n.kind == numInt {
		return float64(n.i)
	}
	return n.f
}

// rat returns the exact value of n. Non-finite floats have no rational form;
// they report rank -2 (NaN), -1 (-Inf) or 1 (+Inf) instead, finite values 0.
func (n number) rat() (*big.Rat, int) {
	switch n.kind {
	case numInt:
		return new(big.Rat).SetInt64(n.i), 0
	case numExact:
		return n.r, 0
	}
	switch {
	case math.IsNaN(n.f):
		return nil, -2
	case math.IsInf(n.f, -1):
		return nil, -1
	case math.IsInf(n.f, 1):
		return nil, 1
	}
	return new(big.Rat).SetFloat64(n.f), 0
}

// CompareNumbers compares a and b numerically. ok is false unless both
// values are numbers.
func CompareNumbers(a, b any) (c int, ok bool) {
	na, ok := asNumber(a)
	if !ok {
		return 0, false
	}
	nb, ok := asNumber(b)
	if !ok {
		return 0, false
	}

	switch {
	case na.kind == numInt && nb.kind == numInt:
		return cmp.Compare(na.i, nb.i), true
	case na.kind != numExact && nb.kind != numExact:
		return cmp.Compare(na.float(), nb.float()), true
	}

	ra, rankA := na.rat()
	rb, rankB := nb.rat()
	if ra == nil || rb == nil {
		return cmp.Compare(rankA, rankB), true
	}
	return ra.Cmp(rb), true
}

// Decimal renders a fixed-point value exactly: unscaled * 10^-scale. The
// result keeps the column's scale, so DECIMAL(10,2) 10.5 becomes "10.50".
func Decimal(unscaled *big.Int, scale int) json.Number {
	if unscaled == nil {
		return ""
	}
	if scale <= 0 {
		exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-scale)), nil)
		return json.Number(new(big.Int).Mul(unscaled, exp).String())
	}

	digits := new(big.Int).Abs(unscaled).String()
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	out := digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	if unscaled.Sign() < 0 {
		out = "-" + out
	}
	return json.Number(out)
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
