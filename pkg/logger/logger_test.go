package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONWithServiceAndLevel(t *testing.T) {
	t.Cleanup(func() {
		Reset()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})
	Reset()

	var buf bytes.Buffer
	log := Init(Options{Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "auth-core", line["service"])
	assert.Equal(t, "warn", line["level"])
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	t.Cleanup(func() {
		Reset()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})
	Reset()

	var first, second bytes.Buffer
	Init(Options{Service: "one", Output: &first})
	l := Init(Options{Service: "two", Output: &second})
	l.Info().Msg("hello")

	assert.Contains(t, first.String(), `"service":"one"`)
	assert.Zero(t, second.Len())
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(zerolog.New(&buf), "audit")
	l.Info().Msg("x")
	assert.Contains(t, buf.String(), `"component":"audit"`)
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"ada@example.com": "a***@example.com",
		"a@x.com":         "a***@x.com",
		"no-at-sign":      "***",
		"@example.com":    "***",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskEmail(in), in)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, parseLevel("TRACE"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel(" warning "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("bogus"))
}
