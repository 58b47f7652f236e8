package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound       = errors.New("not found")
	ErrTransient      = errors.New("transient storage failure")
	ErrNoBoard        = errors.New("onboarding ended without a board")
	ErrEmptyBoardTree = errors.New("board template has no lists")
)
