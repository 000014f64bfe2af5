package profiling

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// Per-frame CPU time buckets plus one-shot timers for load-time work.

var (
	mu          sync.Mutex
	frameTotals = make(map[string]time.Duration)
	frameCounts = make(map[string]int)
)

// Track returns a stop function that adds the elapsed time to the named bucket.
// Usage: defer profiling.Track("chunks.Flush")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		Add(name, time.Since(start))
	}
}

// Add records d under name.
func Add(name string, d time.Duration) {
	mu.Lock()
	frameTotals[name] += d
	frameCounts[name]++
	mu.Unlock()
}

// ResetFrame clears the buckets. Call at the start of each frame.
func ResetFrame() {
	mu.Lock()
	clear(frameTotals)
	clear(frameCounts)
	mu.Unlock()
}

// Sample is one bucket.
type Sample struct {
	Name  string
	Total time.Duration
	Calls int
}

// Snapshot returns a copy of the current buckets, slowest first.
func Snapshot() []Sample {
	mu.Lock()
	out := make([]Sample, 0, len(frameTotals))
	for k, v := range frameTotals {
		out = append(out, Sample{Name: k, Total: v, Calls: frameCounts[k]})
	}
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n slowest buckets.
// Example: "chunks.Flush:4.2ms, chunks.Render:2.1ms"
func TopN(n int) string {
	ss := Snapshot()
	if n > len(ss) {
		n = len(ss)
	}
	parts := make([]string, 0, n)
	for _, s := range ss[:n] {
		parts = append(parts, s.Name+":"+FormatMs(s.Total))
	}
	return strings.Join(parts, ", ")
}

// FormatMs renders d in milliseconds with one decimal, dropping ".0".
func FormatMs(d time.Duration) string {
	tenths := d.Microseconds() / 100
	if tenths%10 == 0 {
		return fmt.Sprintf("%dms", tenths/10)
	}
	return fmt.Sprintf("%d.%dms", tenths/10, tenths%10)
}

// Timer measures a single operation, such as generating one chunk.
type Timer struct {
	name  string
	start time.Time
}

// Start begins a timer.
func Start(name string) Timer {
	return Timer{name: name, start: time.Now()}
}

// Elapsed returns the time since Start.
func (t Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop records the elapsed time in the frame buckets and returns it.
func (t Timer) Stop() time.Duration {
	d := t.Elapsed()
	Add(t.name, d)
	return d
}

// LogEnd stops the timer and logs "<what>: N ms".
func (t Timer) LogEnd(what string) {
	log.Printf("%s: %s", what, FormatMs(t.Stop()))
}

// SumWithPrefix totals every bucket whose name starts with prefix.
func SumWithPrefix(prefix string) time.Duration {
	mu.Lock()
	defer mu.Unlock()
	var total time.Duration
	for k, v := range frameTotals {
		if strings.HasPrefix(k, prefix) {
			total += v
		}
	}
	return total
}
