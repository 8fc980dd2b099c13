package patterns

import (
	"strings"
	"unicode"
)

type InstrumentKind string

const (
	KindEquity InstrumentKind = "EQUITY"
	KindFuture InstrumentKind = "FUTURE"
	KindCall   InstrumentKind = "CALL"
	KindPut    InstrumentKind = "PUT"
)

// Exposure is the market view a position expresses on its underlying.
type Exposure int

const (
	Flat Exposure = iota
	Bullish
	Bearish
)

func (e Exposure) String() string {
	switch e {
	case Bullish:
		return "BULLISH"
	case Bearish:
		return "BEARISH"
	default:
		return "FLAT"
	}
}

type Instrument struct {
	Symbol     string
	Underlying string
	Kind       InstrumentKind
}

// Underlying returns the grouping key for a traded symbol.
func Underlying(symbol string) string {
	return ParseInstrument(symbol).Underlying
}

// ParseInstrument splits a symbol into its underlying and instrument kind.
//
// "NIFTY 16 SEP 25200 CALL" groups under the first token. Compact derivative
// symbols like "NIFTY24SEP25200CE" group under the letters before the first
// digit. Anything without a digit is treated as an equity and is its own
// underlying.
func ParseInstrument(symbol string) Instrument {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	inst := Instrument{Symbol: s, Underlying: s, Kind: KindEquity}

	if tokens := strings.Fields(s); len(tokens) > 1 {
		inst.Underlying = tokens[0]
		for _, tok := range tokens[1:] {
			switch tok {
			case "CALL", "CE":
				inst.Kind = KindCall
			case "PUT", "PE":
				inst.Kind = KindPut
			case "FUT", "FUTURE":
				inst.Kind = KindFuture
			}
		}
		return inst
	}

	digit := strings.IndexFunc(s, unicode.IsDigit)
	if digit < 0 {
		return inst
	}
	lead := 0
	for lead < len(s) && isRootChar(s[lead]) {
		lead++
	}
	if lead == 0 || lead > digit {
		return inst
	}
	inst.Underlying = s[:lead]
	switch {
	case strings.HasSuffix(s, "CE"):
		inst.Kind = KindCall
	case strings.HasSuffix(s, "PE"):
		inst.Kind = KindPut
	case strings.HasSuffix(s, "FUT"):
		inst.Kind = KindFuture
	}
	return inst
}

func isRootChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || c == '&' || c == '-'
}

// ExposureOf returns the view held by a signed net position in the instrument.
func (i Instrument) ExposureOf(net int64) Exposure {
	if net == 0 {
		return Flat
	}
	long := net > 0
	if i.Kind == KindPut {
		long = !long
	}
	if long {
		return Bullish
	}
	return Bearish
}
