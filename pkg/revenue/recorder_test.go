package revenue

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/plan"
)

// syncBuffer makes bytes.Buffer safe for the sink goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testIdentity() auth.Identity {
	return auth.Identity{
		Subject: "usr_rev",
		Email:   "rev@example.com",
		Tier:    plan.TierEnterprise,
	}
}

func TestRecorder_EmitsJSONEvent(t *testing.T) {
	buf := &syncBuffer{}
	rec := NewRecorder(buf, nil)

	rec.Record(EventCreditsPurchased, testIdentity(), map[string]interface{}{
		"credits": 1000,
	})
	rec.Close()

	out := buf.String()
	require.NotEmpty(t, out)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	assert.Equal(t, "credits_purchased", entry["event_type"])
	assert.Equal(t, "usr_rev", entry["subject"])
	assert.Equal(t, "enterprise", entry["tier"])
	assert.EqualValues(t, 1000, entry["meta_credits"])
}

func TestRecorder_NeverBlocks(t *testing.T) {
	// A sink that blocks forever must not stall Record.
	blocked := make(chan struct{})
	rec := NewRecorder(blockingWriter{blocked}, nil)
	defer close(blocked)

	// Far more events than the buffer holds; all calls must return.
	for i := 0; i < defaultBufferSize*2; i++ {
		rec.Record(EventGateDenied, testIdentity(), nil)
	}
}

type blockingWriter struct{ ch chan struct{} }

func (w blockingWriter) Write(p []byte) (int, error) {
	<-w.ch
	return len(p), nil
}

func TestRecorder_Stats(t *testing.T) {
	buf := &syncBuffer{}
	rec := NewRecorder(buf, nil)

	for i := 0; i < 5; i++ {
		rec.Record(EventSignup, testIdentity(), nil)
	}
	rec.Close()

	recorded, dropped := rec.Stats()
	assert.EqualValues(t, 5, recorded)
	assert.EqualValues(t, 0, dropped)
}

func TestRecorder_CloseDrains(t *testing.T) {
	buf := &syncBuffer{}
	rec := NewRecorder(buf, nil)

	for i := 0; i < 10; i++ {
		rec.Record(EventFixGenerated, testIdentity(), nil)
	}
	rec.Close()

	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	assert.Equal(t, 10, lines)

	// Close is idempotent
	rec.Close()
}
