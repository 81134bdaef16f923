package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnindent(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "no indent", in: "a\nb", want: "a\nb"},
		{
			name: "common indent stripped",
			in: `
				parameter "beta" {
				  distribution = normal(1, 1)
				}
			`,
			want: "parameter \"beta\" {\n  distribution = normal(1, 1)\n}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Unindent(tc.in))
		})
	}
}
