package harness

import "github.com/roach88/regrest/internal/logger"

// Generic wrappers giving the decorator feel: wrap a pure function once
// and every call is recorded or verified transparently. The wrapped
// signature is preserved, so verification problems are logged rather than
// returned; callers that need the Outcome (or strict-mode errors) use
// Check directly.

// Wrap1 wraps a one-argument function.
func Wrap1[A, R any](h *Harness, f func(A) R) func(A) R {
	subject := SubjectOf(f)
	return func(a A) R {
		result := f(a)
		if _, err := h.Check(subject, []any{a}, nil, result); err != nil {
			logger.Error("%v", err)
		}
		return result
	}
}

// Wrap2 wraps a two-argument function.
func Wrap2[A, B, R any](h *Harness, f func(A, B) R) func(A, B) R {
	subject := SubjectOf(f)
	return func(a A, b B) R {
		result := f(a, b)
		if _, err := h.Check(subject, []any{a, b}, nil, result); err != nil {
			logger.Error("%v", err)
		}
		return result
	}
}

// Wrap0 wraps a zero-argument function.
func Wrap0[R any](h *Harness, f func() R) func() R {
	subject := SubjectOf(f)
	return func() R {
		result := f()
		if _, err := h.Check(subject, nil, nil, result); err != nil {
			logger.Error("%v", err)
		}
		return result
	}
}
