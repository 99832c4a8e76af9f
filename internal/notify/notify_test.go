package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_WithoutKeyLogsOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := New("", "", zap.New(core))

	_, ok := n.(*LogNotifier)
	assert.True(t, ok)

	err := n.Notify(context.Background(), Message{To: "athlete@example.com", Subject: "Revision requested"})
	assert.NoError(t, err)
	assert.Equal(t, 1, logs.FilterField(zap.String("to", "athlete@example.com")).Len())
}

func TestNew_WithKeyUsesResend(t *testing.T) {
	n := New("re_test", "Academy <coach@example.com>", zap.NewNop())
	r, ok := n.(*ResendNotifier)
	assert.True(t, ok)
	assert.Equal(t, "Academy <coach@example.com>", r.from)
}
