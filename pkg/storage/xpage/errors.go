package xpage

import "errors"

var (
	ErrInvalidName  = errors.New("xpage: invalid page name")
	ErrPageNotFound = errors.New("xpage: page not found")
)
