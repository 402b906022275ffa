// internal/resultlog/resultlog.go
package resultlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/tamzrod/swd-fixture/internal/clock"
)

// Line prefixes recognised by the line-side collector.
const (
	HeaderPrefix = "LOG_HEADER"
	EntryPrefix  = "LOG"
)

var columns = []string{
	"Timestamp_ms",
	"Unit_ID",
	"Status",
	"Load_Voltage_V",
	"SWD_IDCODE",
	"SWD_Attempts",
	"SWD_Status",
	"Test_Duration_ms",
	"FW_Version",
}

// Entry is one completed test.
type Entry struct {
	Unit       uint32
	Status     string
	Voltage    float64
	IDCode     uint32
	Attempts   int
	SWDStatus  string
	DurationMs uint32
}

// Logger prints result lines and optionally appends them to a CSV file.
type Logger struct {
	mu   sync.Mutex
	out  io.Writer
	fw   string
	clk  clock.Clock
	boot time.Time

	file *os.File
	csv  *csv.Writer
}

// New prints to out. Timestamps count milliseconds from the call to New.
func New(out io.Writer, firmware string, clk clock.Clock) *Logger {
	if clk == nil {
		clk = clock.Real{}
	}
	if firmware == "" {
		firmware = "unknown"
	}
	return &Logger{out: out, fw: firmware, clk: clk, boot: clk.Now()}
}

// AppendCSV opens path for appending; a new or empty file gets a header row.
func (l *Logger) AppendCSV(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("resultlog: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("resultlog: stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(columns); err != nil {
			f.Close()
			return fmt.Errorf("resultlog: header %s: %w", path, err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return fmt.Errorf("resultlog: header %s: %w", path, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.file, l.csv = f, w
	return nil
}

// Header prints the column line.
func (l *Logger) Header() {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.out, HeaderPrefix)
	for _, c := range columns {
		fmt.Fprint(l.out, ", ", c)
	}
	fmt.Fprintln(l.out)
}

// Entry prints one result line and appends it to the CSV file, if any.
func (l *Logger) Entry(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.clk.Now().Sub(l.boot).Milliseconds()

	fmt.Fprintf(l.out, "%s, %d, %03d, %s, %.2f, 0x%08X, %d, %s, %d, %s\n",
		EntryPrefix,
		ts,
		e.Unit,
		e.Status,
		e.Voltage,
		e.IDCode,
		e.Attempts,
		e.SWDStatus,
		e.DurationMs,
		l.fw,
	)

	if l.csv == nil {
		return nil
	}

	l.csv.Write([]string{
		strconv.FormatInt(ts, 10),
		fmt.Sprintf("%03d", e.Unit),
		e.Status,
		strconv.FormatFloat(e.Voltage, 'f', 2, 64),
		fmt.Sprintf("0x%08X", e.IDCode),
		strconv.Itoa(e.Attempts),
		e.SWDStatus,
		strconv.FormatUint(uint64(e.DurationMs), 10),
		l.fw,
	})
	l.csv.Flush()
	if err := l.csv.Error(); err != nil {
		return fmt.Errorf("resultlog: append: %w", err)
	}
	return nil
}

// Close closes the CSV file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file, l.csv = nil, nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("resultlog: close: %w", err)
	}
	return nil
}
