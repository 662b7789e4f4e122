package firlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

func TestSetRootRedirectsOutput(t *testing.T) {
	original := Root()
	defer SetRoot(original)

	var buf bytes.Buffer
	SetRoot(slog.New(slog.NewTextHandler(&buf, nil)))

	Info("lowering procedure", "name", "MAIN")

	assert.True(t, strings.Contains(buf.String(), "lowering procedure"))
	assert.True(t, strings.Contains(buf.String(), "MAIN"))
}
