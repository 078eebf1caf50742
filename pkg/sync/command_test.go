package sync

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/weekplan/pkg/plan"
)

// helperCommand re-invokes the test binary as a fake importer.
func helperCommand(mode string) *Command {
	return &Command{
		Path: os.Args[0],
		Args: []string{"-test.run=TestHelperProcess", "--", mode},
		Env:  []string{"WEEKPLAN_WANT_HELPER_PROCESS=1"},
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("WEEKPLAN_WANT_HELPER_PROCESS") != "1" {
		return
	}
	mode := os.Args[len(os.Args)-1]
	switch mode {
	case "ok":
		fmt.Println(`[{"id":"o1","title":"Standup","start":"2026-10-19T09:00:00","end":"2026-10-19T09:15:00"},`)
		fmt.Println(` {"title":"Lunch","start":"2026-10-19T12:00:00","type":"outlook","color":"#E05252"}]`)
	case "empty":
		fmt.Println(`[]`)
	case "object":
		fmt.Println(`{"id":"o1"}`)
	case "garbage":
		fmt.Println(`[{"id":`)
		fmt.Fprintln(os.Stderr, "partial output")
	case "fail":
		fmt.Fprintln(os.Stderr, "token expired")
		os.Exit(3)
	case "hang":
		time.Sleep(10 * time.Second)
	}
	os.Exit(0)
}

func TestFetch(t *testing.T) {
	events, err := helperCommand("ok").Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "o1", events[0].ID)
	assert.Equal(t, "2026-10-19T09:15:00", events[0].End)
	assert.Equal(t, "#E05252", events[1].Color)

	d := plan.NewDocument("2026-W43", nil)
	require.NoError(t, plan.MergeExternal(d, events))
	assert.Len(t, d.Events, 2)
}

func TestFetchEmptyArray(t *testing.T) {
	events, err := helperCommand("empty").Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		mode       string
		wantOp     string
		wantStderr string
	}{
		{"fail", "run", "token expired"},
		{"object", "decode", ""},
		{"garbage", "decode", "partial output"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			_, err := helperCommand(tt.mode).Fetch(context.Background())
			var serr *plan.SyncError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.wantOp, serr.Op)
			assert.Equal(t, tt.wantStderr, serr.Stderr)
		})
	}
}

func TestFetchHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := helperCommand("hang").Fetch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchWithoutCommand(t *testing.T) {
	_, err := (&Command{}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestDecodeEvents(t *testing.T) {
	events, err := DecodeEvents([]byte("  [] \n"))
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = DecodeEvents([]byte("null"))
	assert.Error(t, err)
	_, err = DecodeEvents(nil)
	assert.Error(t, err)
}
