package resource

import (
	"errors"
	"fmt"
)

var (
	ErrTypeMismatch  = errors.New("cannot combine stacks of different resource types")
	ErrInvalidAmount = errors.New("invalid split amount")
)

// Stack is a quantity of one resource type at a single quality.
type Stack struct {
	Type     Type    `json:"type"`
	Quantity float64 `json:"quantity"`
	Quality  float64 `json:"quality"`
}

// Combine merges two stacks of the same type. The result's quality is the
// quantity-weighted average of the inputs.
func Combine(a, b Stack) (Stack, error) {
	if a.Type != b.Type {
		return Stack{}, fmt.Errorf("%w: %s and %s", ErrTypeMismatch, a.Type, b.Type)
	}
	total := a.Quantity + b.Quantity
	if total <= 0 {
		return Stack{Type: a.Type, Quality: a.Quality}, nil
	}
	return Stack{
		Type:     a.Type,
		Quantity: total,
		Quality:  (a.Quantity*a.Quality + b.Quantity*b.Quality) / total,
	}, nil
}

// Split takes amount off the stack. The first result is the part taken, the
// second the remainder; both keep the source quality.
func (s Stack) Split(amount float64) (Stack, Stack, error) {
	if amount <= 0 || amount > s.Quantity {
		return Stack{}, Stack{}, fmt.Errorf("%w: %.2f of %.2f %s", ErrInvalidAmount, amount, s.Quantity, s.Type)
	}
	taken := Stack{Type: s.Type, Quantity: amount, Quality: s.Quality}
	rest := Stack{Type: s.Type, Quantity: s.Quantity - amount, Quality: s.Quality}
	return taken, rest, nil
}

func (s Stack) Empty() bool { return s.Quantity <= 0 }

func (s Stack) Weight() float64 {
	p, ok := s.Type.Properties()
	if !ok {
		return 0
	}
	return s.Quantity * p.Weight
}

func (s Stack) Value() float64 {
	p, ok := s.Type.Properties()
	if !ok {
		return 0
	}
	return p.Value(s.Quantity, s.Quality)
}
