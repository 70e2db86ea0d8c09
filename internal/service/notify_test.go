package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iztleu/scrum-master-bot/internal/testutil"
)

// recordingNotifier counts deliveries per chat and can be told to fail
// for specific recipients.
type recordingNotifier struct {
	mu        sync.Mutex
	delivered map[int64]int
	failFor   map[int64]bool
	deadlines []bool
}

func newRecordingNotifier(failFor ...int64) *recordingNotifier {
	fails := make(map[int64]bool, len(failFor))
	for _, id := range failFor {
		fails[id] = true
	}
	return &recordingNotifier{
		delivered: make(map[int64]int),
		failFor:   fails,
	}
}

func (n *recordingNotifier) Send(ctx context.Context, chatID int64, text string, buttons [][]Button) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	n.deadlines = append(n.deadlines, hasDeadline)
	if n.failFor[chatID] {
		return errors.New("chat unreachable")
	}
	n.delivered[chatID]++
	return nil
}

func TestFanOut_FailureDoesNotBlockOthers(t *testing.T) {
	notifier := newRecordingNotifier(200)

	messages := []Message{
		{ChatID: 100, Text: "hello"},
		{ChatID: 200, Text: "hello"},
		{ChatID: 300, Text: "hello"},
	}

	fanOut(context.Background(), notifier, testutil.NewTestLogger(), messages)

	assert.Equal(t, 1, notifier.delivered[100])
	assert.Equal(t, 0, notifier.delivered[200])
	assert.Equal(t, 1, notifier.delivered[300])
}

func TestFanOut_EachSendHasDeadline(t *testing.T) {
	notifier := newRecordingNotifier()

	fanOut(context.Background(), notifier, testutil.NewTestLogger(), []Message{
		{ChatID: 100, Text: "hello"},
		{ChatID: 200, Text: "hello"},
	})

	assert.Len(t, notifier.deadlines, 2)
	for _, hasDeadline := range notifier.deadlines {
		assert.True(t, hasDeadline)
	}
}

func TestFanOut_NoMessages(t *testing.T) {
	notifier := newRecordingNotifier()

	fanOut(context.Background(), notifier, testutil.NewTestLogger(), nil)

	assert.Empty(t, notifier.delivered)
}
