package errno

import "fmt"

// BizError pairs an Errno with an underlying cause and optional message
// arguments (the Errno message may carry format verbs).
type BizError interface {
	error
	Errno() *Errno
	Message() string
	Unwrap() error
}

type bizError struct {
	errno *Errno
	cause error
	args  []interface{}
}

// NewSimpleBizError wraps an Errno with a cause and message arguments.
func NewSimpleBizError(e *Errno, cause error, args ...interface{}) BizError {
	return &bizError{errno: e, cause: cause, args: args}
}

func (b *bizError) Errno() *Errno {
	return b.errno
}

func (b *bizError) Message() string {
	if len(b.args) > 0 {
		return fmt.Sprintf(b.errno.Message, b.args...)
	}
	return b.errno.Message
}

func (b *bizError) Error() string {
	if b.cause != nil {
		return fmt.Sprintf("%s: %v", b.Message(), b.cause)
	}
	return b.Message()
}

func (b *bizError) Unwrap() error {
	return b.cause
}
