package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripAnnotations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no markers", "plain answer", "plain answer"},
		{"cjk marker", "see the refund policy【4:0†policy.pdf】 for details", "see the refund policy for details"},
		{"square marker", "shipping takes 3 days[2:1†shipping.md].", "shipping takes 3 days."},
		{"multiple markers", "a【1:0†x】b【2:0†y】c", "abc"},
		{"marker only", "【0:0†source】", ""},
		{"empty", "", ""},
		{"square brackets without citation shape", "array[0] stays intact", "array[0] stays intact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripAnnotations(tt.in))
		})
	}
}

func TestStripAnnotationsIdempotent(t *testing.T) {
	inputs := []string{
		"see the refund policy【4:0†policy.pdf】 for details",
		"shipping takes 3 days[2:1†shipping.md].",
		"already clean text",
	}
	for _, in := range inputs {
		once := StripAnnotations(in)
		twice := StripAnnotations(once)
		assert.Equal(t, once, twice)
	}
}
