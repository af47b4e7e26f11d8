package util

import (
	"os"
	"strings"
)

var (
	isDebug *bool
)

func IsDebug() bool {
	if isDebug == nil {
		bigmlerDebug := os.Getenv("BIGMLER_DEBUG")
		d := bigmlerDebug == "1" || strings.EqualFold(bigmlerDebug, "true")
		isDebug = &d
	}

	return *isDebug
}

// SetDebug forces the debug mode, as requested by the --debug flag.
func SetDebug(d bool) {
	isDebug = &d
}
