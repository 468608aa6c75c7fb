package cycles

import (
	"errors"
	"testing"
)

func next(graph map[string][]string) func(string) ([]string, error) {
	return func(k string) ([]string, error) {
		return graph[k], nil
	}
}

func TestDetectReportsCycle(t *testing.T) {
	graph := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}
	err := Detect([]string{"a"}, next(graph))
	if err == nil {
		t.Fatalf("Detect() = nil, want cycle error")
	}
	var cycleErr Error[string]
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Detect() error = %T, want Error[string]", err)
	}
}

func TestDetectAcyclicDiamond(t *testing.T) {
	graph := map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
	}
	if err := Detect([]string{"a"}, next(graph)); err != nil {
		t.Fatalf("Detect() = %v, want nil", err)
	}
}

func TestDetectPropagatesResolutionError(t *testing.T) {
	boom := errors.New("unresolved")
	err := Detect([]string{"a"}, func(k string) ([]string, error) {
		if k == "a" {
			return []string{"b"}, nil
		}
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Detect() = %v, want %v", err, boom)
	}
}
