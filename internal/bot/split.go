package bot

import "strings"

// maxMessageLen is the Telegram hard limit on message text length.
const maxMessageLen = 4096

// SplitMessage greedily joins lines with newlines into chunks of at most max
// characters each. A chunk is closed as soon as appending the next line would
// overflow it; a single line longer than max still becomes its own chunk.
// An empty line list yields no chunks.
func SplitMessage(lines []string, max int) []string {
	var chunks []string
	var cur strings.Builder

	for _, line := range lines {
		if cur.Len() > 0 && cur.Len()+1+len(line) > max {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
