// format.go: entry formatting, float-slot recovery, conversion-type inference
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"math"
	"strconv"
	"strings"
)

// ShowFunc writes a rendered line to its destination, returning the number
// of bytes written — a sink contract collapsed onto Go's io.Writer-shaped
// signature.
type ShowFunc func(line []byte) (int, error)

// FormatFunc renders one entry into a line and calls show once. The
// default is defaultFormat.
type FormatFunc func(show ShowFunc, label, where string, order, timestamp uint64, message string) error

// floatConversions is the set of specifiers that trigger the ABI float
// recovery rule.
const floatConversions = "fFgGeEaA"

// formatMessage walks e.Format, consuming e.Args in order, and returns the
// rendered message (without location/order/timestamp framing, which
// defaultFormat adds separately). It walks one argument at a time: an
// unsupported, %n, or %* specifier aborts formatting of the remainder of
// this entry (the text produced so far is kept — this aborts the entry,
// not the whole dump).
func formatMessage(e *Entry) string {
	var b strings.Builder
	argIndex := 0
	format := e.Format

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			break
		}
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}

		start := i
		for i < len(format) && !isConversionEnd(format[i]) {
			i++
		}
		if i >= len(format) {
			break
		}
		spec := format[start : i+1]
		conv := format[i]

		if conv == 'n' || conv == '*' {
			break
		}

		if argIndex >= NumArgs {
			break
		}
		slot := e.Args[argIndex]
		argIndex++

		switch {
		case strings.IndexByte(floatConversions, conv) >= 0:
			b.WriteString(formatFloat(slot, spec, conv))
		case strings.IndexByte("dDiuUxXoObBcCpP", conv) >= 0:
			b.WriteString(formatInt(slot, spec, conv))
		case conv == 's' || conv == 'S':
			b.WriteString(formatString(slot))
		default:
			return b.String()
		}
	}

	msg := b.String()
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	return msg
}

// isConversionEnd reports whether c terminates a conversion specifier.
func isConversionEnd(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return false
	case c == '.' || c == '-' || c == '+' || c == ' ' || c == '#' || c == 'l' || c == 'h':
		return false
	default:
		return true
	}
}

// formatFloat recovers a float from an integer-width argument slot by bit
// reinterpretation, collapsed onto Go's single uint64 slot width (no
// 32-bit/64-bit ABI distinction to make, since every slot here is already
// a full word).
func formatFloat(slot uint64, spec string, conv byte) string {
	v := math.Float64frombits(slot)
	prec := precisionOf(spec, 2)
	switch conv {
	case 'e', 'E', 'g', 'G', 'a', 'A':
		return strconv.FormatFloat(v, byte(lowerConv(conv)), prec, 64)
	default:
		return strconv.FormatFloat(v, 'f', prec, 64)
	}
}

func lowerConv(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

// precisionOf extracts a ".N" precision from a conversion spec like
// ".2f", defaulting to def if none is present.
func precisionOf(spec string, def int) int {
	dot := strings.IndexByte(spec, '.')
	if dot < 0 {
		return def
	}
	j := dot + 1
	for j < len(spec) && spec[j] >= '0' && spec[j] <= '9' {
		j++
	}
	if j == dot+1 {
		return def
	}
	n, err := strconv.Atoi(spec[dot+1 : j])
	if err != nil {
		return def
	}
	return n
}

// formatInt renders an integer argument slot according to conv.
func formatInt(slot uint64, spec string, conv byte) string {
	switch conv {
	case 'x':
		return strconv.FormatUint(slot, 16)
	case 'X':
		return strings.ToUpper(strconv.FormatUint(slot, 16))
	case 'o', 'O':
		return strconv.FormatUint(slot, 8)
	case 'b', 'B':
		return strconv.FormatUint(slot, 2)
	case 'u', 'U':
		return strconv.FormatUint(slot, 10)
	case 'c', 'C':
		return string(rune(slot))
	case 'p', 'P':
		return "0x" + strconv.FormatUint(slot, 16)
	default: // d, D, i
		return strconv.FormatInt(int64(slot), 10)
	}
}

// formatString renders a string argument slot. A zero slot (no string
// pointer available in this word-slot model) renders as the literal
// <NULL>.
func formatString(slot uint64) string {
	if slot == 0 {
		return "<NULL>"
	}
	return strconv.FormatUint(slot, 10)
}

// inferConversionType inspects the i-th conversion specifier in format and
// returns the channel type tag it implies: real / signed / unsigned /
// invalid.
func inferConversionType(format string, index int) ChanType {
	seen := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if i >= len(format) {
			break
		}
		if format[i] == '%' {
			continue
		}
		for i < len(format) && !isConversionEnd(format[i]) {
			i++
		}
		if i >= len(format) {
			break
		}
		conv := format[i]
		if conv == 'n' || conv == '*' {
			return ChanInvalid
		}
		if seen == index {
			switch {
			case strings.IndexByte(floatConversions, conv) >= 0:
				return ChanReal
			case strings.IndexByte("dDi", conv) >= 0:
				return ChanSigned
			case strings.IndexByte("uUxXoObB", conv) >= 0:
				return ChanUnsigned
			default:
				return ChanInvalid
			}
		}
		seen++
	}
	return ChanInvalid
}

// defaultFormat renders the default line:
// "<location>: [<order> <secs.ffffff>] <label>: <message>"
func defaultFormat(show ShowFunc, label, where string, order, timestamp uint64, message string) error {
	secs := float64(timestamp) / float64(TicksPerSecond)
	line := where + ": [" + strconv.FormatUint(order, 10) + " " +
		strconv.FormatFloat(secs, 'f', 6, 64) + "] " + label + ": " + message
	_, err := show([]byte(line))
	return err
}
