package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"meshlog/mesh"

	"github.com/zeebo/xxh3"
)

const maxLineBytes = 1024 * 1024

// Result is everything collected from one log.
type Result struct {
	Events []mesh.SensorEvent
	Relays *mesh.RelayTally
	Errors []mesh.ErrorRecord
	// RelayLines counts lines that produced a relay increment.
	RelayLines int
	Lines      int
	// LongLines counts lines over maxLineBytes; they are counted in Lines
	// but never classified.
	LongLines int
	// Bytes is the raw size of the input, terminators included.
	Bytes int64
	// Digest is an xxh3 hash over the line contents, each terminated by a
	// single newline, so CRLF and LF captures of the same log agree.
	Digest uint64
	// CaptureTime is the fallback timestamp used for lines without one.
	CaptureTime string
}

// Collector accumulates classified lines in input order.
type Collector struct {
	captured string
	hasher   *xxh3.Hasher
	res      Result
}

// NewCollector samples clock once; that reading becomes the timestamp of
// every sensor line that lacks its own. A nil clock uses time.Now.
func NewCollector(clock Clock) *Collector {
	captured := clock.captureTime()
	return &Collector{
		captured: captured,
		hasher:   xxh3.New(),
		res: Result{
			Relays:      mesh.NewRelayTally(),
			CaptureTime: captured,
		},
	}
}

// Add feeds the next line (without its terminator).
func (c *Collector) Add(line string) {
	c.res.Lines++
	c.hash([]byte(line))

	cls := Classify(line, c.res.Lines, c.captured)
	if cls.Sensor != nil {
		c.res.Events = append(c.res.Events, *cls.Sensor)
	}
	if cls.RelayNode != "" {
		c.res.Relays.Add(cls.RelayNode)
		c.res.RelayLines++
	}
	if cls.Error != nil {
		c.res.Errors = append(c.res.Errors, *cls.Error)
	}
}

// addLong records a line that exceeded maxLineBytes. Only its first
// maxLineBytes bytes reach the digest.
func (c *Collector) addLong(prefix []byte) {
	c.res.Lines++
	c.res.LongLines++
	c.hash(prefix)
}

func (c *Collector) hash(line []byte) {
	_, _ = c.hasher.Write(line)
	_, _ = c.hasher.Write([]byte{'\n'})
}

// Result returns the records collected so far.
func (c *Collector) Result() Result {
	out := c.res
	out.Digest = c.hasher.Sum64()
	return out
}

// Collect reads r until EOF. A line ends at LF, CRLF or a lone CR. Lines
// longer than maxLineBytes are counted and skipped; only read errors from r
// abort the scan.
func Collect(r io.Reader, clock Clock) (Result, error) {
	c := NewCollector(clock)
	cr := &countingReader{r: r}
	br := bufio.NewReaderSize(cr, 64*1024)

	line := make([]byte, 0, 4096)
	long := false
	afterCR := false
	emit := func() {
		if long {
			c.addLong(line)
		} else {
			c.Add(string(line))
		}
		line = line[:0]
		long = false
	}
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.res.Bytes = cr.n
			return c.Result(), fmt.Errorf("read log after line %d: %w", c.res.Lines, err)
		}
		if afterCR {
			afterCR = false
			if b == '\n' {
				continue
			}
		}
		switch b {
		case '\r':
			afterCR = true
			emit()
		case '\n':
			emit()
		default:
			if len(line) < maxLineBytes {
				line = append(line, b)
			} else {
				long = true
			}
		}
	}
	if len(line) > 0 || long {
		emit()
	}
	c.res.Bytes = cr.n
	return c.Result(), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// ParseFile opens path and collects every line of it.
func ParseFile(path string, clock Clock) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return Collect(f, clock)
}
