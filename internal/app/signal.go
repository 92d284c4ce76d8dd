package app

func NewSignal[T comparable](value T) *Signal[T] {
	return &Signal[T]{V: value}
}

// Signal runs its effects when the value changes.
type Signal[T comparable] struct {
	V       T
	effects []func()
}

// SetValue reports whether the value changed.
func (s *Signal[T]) SetValue(value T) bool {
	if s.V == value {
		return false
	}
	s.V = value
	for _, fn := range s.effects {
		fn()
	}
	return true
}

func (s *Signal[T]) AddEffect(fn func()) {
	s.effects = append(s.effects, fn)
}
