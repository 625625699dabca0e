package convert

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count the way the upload panel displays it:
// two decimals at most, trailing zeros trimmed.
func FormatFileSize(size int64) string {
	if size <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	exp := int(math.Floor(math.Log(float64(size)) / math.Log(k)))
	if exp >= len(sizeUnits) {
		exp = len(sizeUnits) - 1
	}
	value := float64(size) / math.Pow(k, float64(exp))
	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[exp]
}
