package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// progressMeter draws a single self-overwriting transfer line, the way
// downloads look in interactive tools. One meter serves one query.
type progressMeter struct {
	out   *os.File
	drawn bool
}

// newProgressMeter returns a meter writing to out, or nil when out is not a
// terminal (a redirected stderr gets no control-character noise).
func newProgressMeter(out *os.File) *progressMeter {
	if !term.IsTerminal(int(out.Fd())) {
		return nil
	}
	return &progressMeter{out: out}
}

// update is shaped as a debuginfod.ProgressFunc. It never aborts the
// transfer.
func (m *progressMeter) update(bytesDone, bytesTotal int64) int {
	if bytesTotal > 0 {
		fmt.Fprintf(m.out, "\rDownloading: %d / %d bytes", bytesDone, bytesTotal)
	} else {
		fmt.Fprintf(m.out, "\rDownloading: %d bytes", bytesDone)
	}
	m.drawn = true
	return 0
}

// finish terminates the meter line so later output starts on a fresh one.
func (m *progressMeter) finish() {
	if m.drawn {
		fmt.Fprintln(m.out)
	}
}
