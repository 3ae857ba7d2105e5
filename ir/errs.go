package ir

import "errors"

var (
	ErrParse   = errors.New("parse error")
	ErrPointer = errors.New("pointer error")
	ErrType    = errors.New("type error")
)
