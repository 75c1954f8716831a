// Package diagnostics collects the human-readable error messages produced
// by every front-end stage and flushes them to a shared output channel.
package diagnostics

import (
	"fmt"
	"io"
	"strings"
)

// Collector accumulates diagnostic messages in insertion order. It gives no
// ordering guarantees beyond that; stages halt at their next boundary once
// the collector is non-empty.
type Collector struct {
	messages []string
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{}
}

// Insert appends msg to the pending diagnostics.
func (c *Collector) Insert(msg string) {
	c.messages = append(c.messages, msg)
}

// Insertf appends a formatted diagnostic.
func (c *Collector) Insertf(format string, args ...any) {
	c.Insert(fmt.Sprintf(format, args...))
}

// Empty reports whether there are no pending diagnostics.
func (c *Collector) Empty() bool {
	return len(c.messages) == 0
}

// Count returns the number of pending diagnostics.
func (c *Collector) Count() int {
	return len(c.messages)
}

// Display writes every pending diagnostic to w, prefixed with the error
// count and its pluralization, then clears the collector. It returns
// whether anything was written.
func (c *Collector) Display(w io.Writer) bool {
	if c.Empty() {
		return false
	}
	plural := "s"
	if len(c.messages) == 1 {
		plural = ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d error%s occurred:\n", len(c.messages), plural)
	for _, m := range c.messages {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	io.WriteString(w, b.String())
	c.messages = nil
	return true
}

// Error inserts msg and immediately flushes it to w.
func (c *Collector) Error(w io.Writer, msg string) {
	c.Insert(msg)
	c.Display(w)
}

// Messages returns a snapshot of the pending diagnostics without clearing
// the collector. Intended for tests.
func (c *Collector) Messages() []string {
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}
