package ingest

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is an upstream numeric that may arrive as a JSON number or as a
// string. Absent, null, empty, unparseable and out-of-range values all
// decode to zero so a malformed field degrades a dashboard instead of failing it.
type Number struct {
	d decimal.Decimal
}

func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || math.IsInf(d.InexactFloat64(), 0) {
		return Number{}
	}
	return Number{d: d}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = Number{}
		return nil
	}
	*n = ParseNumber(strings.Trim(s, `"`))
	return nil
}

func (n Number) Float() float64 { return n.d.InexactFloat64() }

// Int truncates toward zero.
func (n Number) Int() int64 { return n.d.IntPart() }

func (n Number) Decimal() decimal.Decimal { return n.d }
