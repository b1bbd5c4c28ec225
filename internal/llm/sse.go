package llm

import (
	"bufio"
	"io"
	"strings"
)

// readSSE calls fn with the payload of every "data:" line in a server-sent
// event stream until the stream ends, fn returns an error or fn reports
// done.
func readSSE(r io.Reader, fn func(data string) (done bool, err error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		done, err := fn(strings.TrimSpace(data))
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return scanner.Err()
}
