package main

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var byteUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes renders n with a binary unit, keeping exact counts below 1 KiB.
func formatBytes(n int64) string {
	if n < 1024 {
		return printer.Sprintf("%d B", n)
	}
	value := float64(n) / 1024
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	return printer.Sprintf("%.1f %s", value, byteUnits[unit])
}

func formatRate(n int64) string {
	if n <= 0 {
		return "-"
	}
	return formatBytes(n) + "/s"
}

func formatLimit(n int64) string {
	if n <= 0 {
		return "unlimited"
	}
	return formatBytes(n) + "/s"
}

func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

func formatProgress(completed, total int64) string {
	if total <= 0 {
		return "-"
	}
	return printer.Sprintf("%.1f%%", float64(completed)*100/float64(total))
}

// textInt parses the decimal strings status maps use for integers.
func textInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
