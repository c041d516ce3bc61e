package common

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// FieldError is one rejected setting.
type FieldError struct {
	Field   string
	Value   any
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s=%v %s", e.Field, e.Value, e.Message)
}

// Checker collects setting problems so Validate can report all of them at once.
type Checker struct {
	errs []FieldError
}

func (c *Checker) add(field string, value any, msg string) *Checker {
	c.errs = append(c.errs, FieldError{Field: field, Value: value, Message: msg})
	return c
}

func (c *Checker) Required(field, value string) *Checker {
	if strings.TrimSpace(value) == "" {
		return c.add(field, value, "is required")
	}
	return c
}

func (c *Checker) OneOf(field, value string, allowed ...string) *Checker {
	if !slices.Contains(allowed, value) {
		return c.add(field, value, "must be one of "+strings.Join(allowed, ", "))
	}
	return c
}

func (c *Checker) Positive(field string, value int) *Checker {
	if value <= 0 {
		return c.add(field, value, "must be greater than 0")
	}
	return c
}

func (c *Checker) Between(field string, value, lo, hi float64) *Checker {
	if value < lo || value > hi {
		return c.add(field, value, fmt.Sprintf("must be between %g and %g", lo, hi))
	}
	return c
}

func (c *Checker) Failed() bool { return len(c.errs) > 0 }

func (c *Checker) Fields() []FieldError { return c.errs }

// Err joins every FieldError, or returns nil.
func (c *Checker) Err() error {
	if !c.Failed() {
		return nil
	}
	errs := make([]error, len(c.errs))
	for i, e := range c.errs {
		errs[i] = e
	}
	return errors.Join(errs...)
}

func (c *Checker) String() string {
	msgs := make([]string, len(c.errs))
	for i, e := range c.errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
