// Package debug holds env-gated debug switches for the engine.
// Set DOC_DEBUG_<AREA>=1 to enable an area's logging.
package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Validate bool
	Reduce   bool
	Redact   bool
	Combine  bool
	Schema   bool
}

var d *debug

func init() {
	d = &debug{}
	d.Validate = boolEnv("DOC_DEBUG_VALIDATE")
	d.Reduce = boolEnv("DOC_DEBUG_REDUCE")
	d.Redact = boolEnv("DOC_DEBUG_REDACT")
	d.Combine = boolEnv("DOC_DEBUG_COMBINE")
	d.Schema = boolEnv("DOC_DEBUG_SCHEMA")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Validate() bool {
	return d.Validate
}
func Reduce() bool {
	return d.Reduce
}
func Redact() bool {
	return d.Redact
}
func Combine() bool {
	return d.Combine
}
func Schema() bool {
	return d.Schema
}
