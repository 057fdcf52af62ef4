package console

import (
	"bytes"
	"context"
	"courtchat/app/service/queue"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    queue.Command
		ok      bool
		wantErr bool
	}{
		{line: "  ", ok: false},
		{line: "/start", want: queue.Command{Kind: queue.KindStart}, ok: true},
		{line: "/CLOSE", want: queue.Command{Kind: queue.KindClose}, ok: true},
		{line: "/reload ", want: queue.Command{Kind: queue.KindReload}, ok: true},
		{line: " What news? ", want: queue.Command{Kind: queue.KindMessage, Text: "What news?"}, ok: true},
		{line: "/dance", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, ok, err := Parse(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestRead(t *testing.T) {
	input := strings.NewReader("/start\nHello there\n/oops\n\n/close\n")

	var (
		out  bytes.Buffer
		cmds []queue.Command
	)

	err := Read(context.Background(), input, &out, func(cmd queue.Command) bool {
		cmds = append(cmds, cmd)
		return cmd.Kind != queue.KindClose
	})

	require.NoError(t, err)
	assert.Equal(t, []queue.Command{
		{Kind: queue.KindStart},
		{Kind: queue.KindMessage, Text: "Hello there"},
		{Kind: queue.KindClose},
	}, cmds)
	assert.Contains(t, out.String(), "unknown command /oops")
	assert.Contains(t, out.String(), "busy")
}
