package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "only separators", input: " , ,, ", expected: nil},
		{name: "single", input: "SP1", expected: []string{"SP1"}},
		{name: "trims and drops empties", input: " SP1, SP2,,", expected: []string{"SP1", "SP2"}},
		{name: "dedupes keeping first", input: "b:9092,a:9092,b:9092", expected: []string{"b:9092", "a:9092"}},
		{name: "case sensitive", input: "sp1,SP1", expected: []string{"sp1", "SP1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}
