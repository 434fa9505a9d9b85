package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearSequence(t *testing.T) {
	tests := []struct {
		name       string
		textLength int
		width      int
		wantUps    int
	}{
		{"short", 10, 80, 1},
		{"empty", 0, 80, 1},
		{"exact width", 80, 80, 1},
		{"wraps twice", 161, 80, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := clearSequence(tt.textLength, tt.width)
			assert.Equal(t, tt.wantUps, strings.Count(seq, "\x1b[1A"))
			assert.Equal(t, tt.wantUps+1, strings.Count(seq, "\x1b[2K"))
		})
	}
}

func TestPrompterAsk(t *testing.T) {
	var out bytes.Buffer
	p := &Prompter{In: strings.NewReader("jdoe\n\n\nlast"), Out: &out}

	v, err := p.Ask("Username", "")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", v)

	v, err = p.Ask("Host", "www.quickbase.com")
	require.NoError(t, err)
	assert.Equal(t, "www.quickbase.com", v)

	_, err = p.Ask("Application", "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	v, err = p.Ask("Token", "")
	require.NoError(t, err)
	assert.Equal(t, "last", v)

	assert.Contains(t, out.String(), "Host [www.quickbase.com]: ")
}

func TestPrompterAskSecretFallsBackWithoutTTY(t *testing.T) {
	p := &Prompter{In: strings.NewReader("hunter2\n"), Out: &bytes.Buffer{}}
	v, err := p.AskSecret("Password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)
}
