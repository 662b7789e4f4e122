package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"firlower/internal/source"

	"github.com/fatih/color"
)

// Bag collects soft diagnostics (such as "unhandled construct variant"
// warnings) without aborting the call. The lowering core itself reports
// its pass-through warnings through firlog.Warn and does not add them to
// a Bag. Structural errors never go through the bag: they panic and are
// caught at the driver boundary instead.
type Bag struct {
	mu    sync.Mutex
	items []*Diagnostic
}

// NewBag returns an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic.
func (b *Bag) Add(d *Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, d)
}

// Warnf records a warning-severity diagnostic, optionally tied to loc.
func (b *Bag) Warnf(loc *source.Location, format string, args ...interface{}) {
	b.Add(&Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...), Location: loc})
}

// Items returns a copy of the collected diagnostics.
func (b *Bag) Items() []*Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Diagnostic, len(b.items))
	copy(out, b.items)
	return out
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Emitter renders a Bag's diagnostics to a writer, coloring by severity
// through github.com/fatih/color rather than a hand-rolled ANSI table. It
// keeps a source.SourceCache so the offending line can be printed under
// the message without re-reading the file for every diagnostic that
// lands on it.
type Emitter struct {
	w     io.Writer
	cache source.SourceCache
}

// NewEmitter returns an emitter writing to w, backed by its own
// line cache.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w, cache: newFileLineCache()}
}

// NewEmitterWithCache returns an emitter that reads source lines through
// cache instead of its own — a caller that already has one (or a test
// that wants to avoid touching disk) can share it.
func NewEmitterWithCache(w io.Writer, cache source.SourceCache) *Emitter {
	return &Emitter{w: w, cache: cache}
}

// EmitAll renders every diagnostic in the bag, one line each.
func (e *Emitter) EmitAll(b *Bag) {
	for _, d := range b.Items() {
		e.Emit(d)
	}
}

// Emit renders a single diagnostic, followed by the source line it
// points at when one is available.
func (e *Emitter) Emit(d *Diagnostic) {
	c := color.New(color.FgYellow)
	if d.Severity == Error {
		c = color.New(color.FgRed, color.Bold)
	}
	c.Fprintf(e.w, "%s: ", d.Severity)
	if d.Location != nil {
		fmt.Fprintf(e.w, "%s: ", d.Location.String())
	}
	fmt.Fprintln(e.w, d.Message)
	if d.Location == nil {
		return
	}
	snippet := d.Location.GetText(e.cache)
	for _, line := range strings.Split(snippet, "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintf(e.w, "    | %s\n", line)
	}
}

// fileLineCache is a source.SourceCache that reads each file at most
// once per Emitter, matching the teacher's own SourceCache/GetLine pair
// (internal/diagnostics/emitter.go) but backed by GetSourceLinesRange's
// []string-per-file shape instead of a line-indexed map.
type fileLineCache struct {
	mu    sync.Mutex
	files map[string][]string
}

func newFileLineCache() *fileLineCache {
	return &fileLineCache{files: make(map[string][]string)}
}

func (c *fileLineCache) GetLinesRange(filepath string, startLine, endLine int) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, ok := c.files[filepath]
	if !ok {
		read, err := source.GetSourceLines(filepath)
		if err != nil {
			return nil, false
		}
		lines = read
		c.files[filepath] = lines
	}
	if startLine < 1 || endLine > len(lines) {
		return nil, false
	}
	return lines[startLine-1 : endLine], true
}
