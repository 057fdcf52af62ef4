// Package console turns lines typed into the terminal into player commands.
package console

import (
	"bufio"
	"context"
	"courtchat/app/service/queue"
	"fmt"
	"io"
	"strings"
)

// Parse maps a line to a command. Lines starting with a slash are control commands,
// everything else is said by the player.
func Parse(line string) (queue.Command, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return queue.Command{}, false, nil
	}

	if !strings.HasPrefix(line, "/") {
		return queue.Command{Kind: queue.KindMessage, Text: line}, true, nil
	}

	switch strings.ToLower(line) {
	case "/start":
		return queue.Command{Kind: queue.KindStart}, true, nil
	case "/close":
		return queue.Command{Kind: queue.KindClose}, true, nil
	case "/reload":
		return queue.Command{Kind: queue.KindReload}, true, nil
	default:
		return queue.Command{}, false, fmt.Errorf("unknown command %s, expected /start, /close or /reload", line)
	}
}

// Read feeds commands from r into add until r is exhausted or ctx is done.
func Read(ctx context.Context, r io.Reader, out io.Writer, add func(queue.Command) bool) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		cmd, ok, err := Parse(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if !ok {
			continue
		}

		if !add(cmd) {
			fmt.Fprintln(out, "busy, try again later")
		}
	}

	return scanner.Err()
}
