package slogx

// Well-known attribute keys shared across handlers and middlewares.
const (
	ErrorKey = "error"
)
