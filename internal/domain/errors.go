package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidListID   = errors.New("invalid list id")
	ErrInvalidTemplate = errors.New("invalid template")
	ErrInvalidTree     = errors.New("invalid board tree")
)
