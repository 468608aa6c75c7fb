// Package cycles implements directed-graph cycle detection over
// comparable keys. The editor uses it to reject base-class assignments
// that would make a class an ancestor of itself.
package cycles

import "fmt"

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// Error reports a cycle passing through Key.
type Error[K comparable] struct {
	Key K
}

// Error returns the error string.
func (e Error[K]) Error() string {
	return fmt.Sprintf("cycle through %v", e.Key)
}

// Detect walks directed edges from each start key and returns an
// Error for the first cycle found. Edges to keys the next function
// reports nothing for are simply leaves; resolution failures from next
// are returned as-is.
func Detect[K comparable](starts []K, next func(K) ([]K, error)) error {
	if next == nil {
		return fmt.Errorf("cycle detect: next function is nil")
	}
	states := make(map[K]visitState, len(starts))

	var visit func(key K) error
	visit = func(key K) error {
		switch states[key] {
		case stateVisiting:
			return Error[K]{Key: key}
		case stateDone:
			return nil
		}
		states[key] = stateVisiting
		edges, err := next(key)
		if err != nil {
			return err
		}
		for _, edge := range edges {
			if err := visit(edge); err != nil {
				return err
			}
		}
		states[key] = stateDone
		return nil
	}

	for _, start := range starts {
		if err := visit(start); err != nil {
			return err
		}
	}
	return nil
}
