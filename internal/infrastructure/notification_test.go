package infrastructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/youtubify-go/internal/domain"
)

type recordedCommand struct {
	name string
	args []string
}

func newRecordingNotifier(method string, enabled bool, fail error) (*NotificationService, *[]recordedCommand) {
	var calls []recordedCommand
	n := NewNotificationService(&domain.NotificationConfig{Enabled: enabled, Method: method}, nil)
	n.run = func(name string, args ...string) error {
		calls = append(calls, recordedCommand{name: name, args: args})
		return fail
	}
	return n, &calls
}

func TestNotificationService_Disabled(t *testing.T) {
	n, calls := newRecordingNotifier("notify-send", false, nil)

	require.NoError(t, n.Send("title", "message"))
	assert.Empty(t, *calls)
}

func TestNotificationService_NotifySend(t *testing.T) {
	n, calls := newRecordingNotifier("notify-send", true, nil)

	n.NotifyJobCompleted(domain.Snapshot{
		Kind:      domain.KindSingleItem,
		SourceURL: "https://example.com/watch?v=abc",
		Metadata:  &domain.MediaMetadata{Title: "Some Clip"},
	})

	require.Len(t, *calls, 1)
	assert.Equal(t, "notify-send", (*calls)[0].name)
	assert.Equal(t, []string{"Download Complete", "Some Clip"}, (*calls)[0].args)
}

func TestNotificationService_OSAScript(t *testing.T) {
	n, calls := newRecordingNotifier("osascript", true, nil)

	n.NotifyJobFailed(domain.Snapshot{
		Kind:      domain.KindPlaylist,
		SourceURL: "https://example.com/playlist?list=PL1",
		Error:     &domain.JobError{Kind: domain.ErrorEngine, Message: "HTTP Error 404"},
	})

	require.Len(t, *calls, 1)
	assert.Equal(t, "osascript", (*calls)[0].name)
	assert.Contains(t, (*calls)[0].args[1], `with title "Download Failed"`)
	assert.Contains(t, (*calls)[0].args[1], "HTTP Error 404")
}

func TestNotificationService_UnknownMethod(t *testing.T) {
	n, calls := newRecordingNotifier("carrier-pigeon", true, nil)

	require.NoError(t, n.Send("title", "message"))
	assert.Empty(t, *calls)
}

func TestNotificationService_CommandError(t *testing.T) {
	n, _ := newRecordingNotifier("notify-send", true, errors.New("not installed"))

	assert.Error(t, n.Send("title", "message"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc...", truncateString("abcdef", 3))
}
