package context

import "context"

// Reader is implemented by commands exposing their context.
type Reader interface {
	Context() context.Context
}

// Writer is implemented by commands accepting a new context.
type Writer interface {
	SetContext(ctx context.Context)
}

type ReaderWriter interface {
	Reader
	Writer
}
