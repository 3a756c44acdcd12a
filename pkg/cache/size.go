package cache

import (
	"unicode/utf16"

	"github.com/gnana997/varscan/pkg/parser"
)

// recordOverhead is the fixed per-variable estimate in bytes.
const recordOverhead = 32

// EstimateSize approximates the memory held by vars: two bytes per UTF-16
// code unit of name, type and declaration type, plus a fixed overhead per
// record. It is an accounting figure, not a measurement.
func EstimateSize(vars []parser.VariableInfo) int64 {
	var total int64
	for _, v := range vars {
		total += 2*utf16Len(v.Name) + 2*utf16Len(v.Type) + 2*utf16Len(v.DeclarationType) + recordOverhead
	}
	return total
}

func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		n += int64(utf16.RuneLen(r))
	}
	return n
}
