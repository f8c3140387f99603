package cli

import (
	"testing"

	"github.com/runloop/rl-cli/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestParseEnvVars(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "empty",
			pairs: nil,
			want:  nil,
		},
		{
			name:  "single pair",
			pairs: []string{"FOO=bar"},
			want:  map[string]string{"FOO": "bar"},
		},
		{
			name:  "value containing equals",
			pairs: []string{"URL=https://example.com?a=b"},
			want:  map[string]string{"URL": "https://example.com?a=b"},
		},
		{
			name:  "empty value",
			pairs: []string{"EMPTY="},
			want:  map[string]string{"EMPTY": ""},
		},
		{
			name:    "missing equals",
			pairs:   []string{"NOVALUE"},
			wantErr: true,
		},
		{
			name:    "missing key",
			pairs:   []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEnvVars(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, domain.ErrInvalidArgs)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
