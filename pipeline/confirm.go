package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirm asks the operator before a large upsert. Anything but an
// explicit "y" declines.
func confirm(in io.Reader, out io.Writer, total int64) bool {
	fmt.Fprintf(out, "\nThis will upsert %d records. Continue? [y/N] ", total)

	reader := bufio.NewReader(in)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
