package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	cases := map[string]string{
		"S*** R*** K***":  `S\*\*\* R\*\*\* K\*\*\*`,
		"snake_case [x]":  `snake\_case \[x]`,
		"Tom Cruise":      "Tom Cruise",
		"`code`":          "\\`code\\`",
		"v1.2.3 (abc, x)": "v1.2.3 (abc, x)",
	}
	for in, want := range cases {
		require.Equal(t, want, Escape(in), in)
	}
}
