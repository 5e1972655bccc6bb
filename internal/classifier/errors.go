package classifier

import "fmt"

// AIError is returned when the language model times out, fails or answers
// with something that cannot be used.
type AIError struct {
	Op  string
	Err error
}

func (e *AIError) Error() string {
	return fmt.Sprintf("ai %s: %v", e.Op, e.Err)
}

func (e *AIError) Unwrap() error {
	return e.Err
}
