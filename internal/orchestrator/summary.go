package orchestrator

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Summary reports what one product crawl produced.
type Summary struct {
	Product        string
	Reviews        int
	Threads        int
	ThreadComments int
	Launches       int
	LaunchComments int
	Makers         int
	HasDetails     bool
	Incomplete     int
	Errors         []string
	Duration       time.Duration
	Err            error
}

func summarize(b *types.Bundle, d time.Duration) Summary {
	s := Summary{
		Product:    b.Product,
		Reviews:    len(b.Reviews),
		Threads:    len(b.Threads),
		Launches:   len(b.Launches),
		Makers:     len(b.Makers),
		HasDetails: b.Details != nil,
		Errors:     b.Errors,
		Duration:   d,
	}
	for _, th := range b.Threads {
		n, inc := countComments(th.Comments)
		s.ThreadComments += n
		s.Incomplete += inc
	}
	for _, l := range b.Launches {
		n, inc := countComments(l.Comments)
		s.LaunchComments += n
		s.Incomplete += inc
	}
	return s
}

// countComments counts comments and their direct replies, and how many
// comments were left with unfetched reply pages. A repliesCount above the
// replies held is not enough on its own: upstream counts deleted replies.
func countComments(comments []types.Comment) (total, incomplete int) {
	for i := range comments {
		total += 1 + len(comments[i].Replies)
		if comments[i].HasMoreReplies {
			incomplete++
		}
	}
	return total, incomplete
}

// ReadSlugs reads one product slug per line. Blank lines and lines
// starting with # are skipped, as are duplicates.
func ReadSlugs(r io.Reader) ([]string, error) {
	var slugs []string
	seen := map[string]bool{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		slugs = append(slugs, line)
	}
	return slugs, sc.Err()
}
