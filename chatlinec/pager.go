package main

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// A simple pager like more(1). Implements io.Writer. If r is a terminal,
// it must be put in raw mode with term.MakeRaw(). If r is not a terminal,
// pager is a no-op and all output is directly written to w.
//
// Lines wider than the terminal count once per row they occupy.
type pager struct {
	fd         int
	w          io.Writer
	r          *bufio.Reader
	buf        bytes.Buffer
	shouldPage bool
	rows       int
	stopped    bool
}

var _ io.Writer = &pager{}

func newPager(r io.Reader, w io.Writer) *pager {
	shouldPage := false
	fd := -1

	f, ok := r.(interface{ Fd() uintptr }) // usually *os.File
	if ok {
		fd = int(f.Fd())
		shouldPage = term.IsTerminal(fd)
	}

	return &pager{
		fd:         fd,
		w:          w,
		r:          bufio.NewReader(r),
		shouldPage: shouldPage,
	}
}

// rowsFor returns how many terminal rows line takes up at width.
func rowsFor(line string, width int) int {
	line = strings.TrimRight(line, "\r\n")
	w := runewidth.StringWidth(line)
	if width <= 0 || w <= width {
		return 1
	}

	return (w + width - 1) / width
}

func (p *pager) Write(b []byte) (n int, err error) {
	if !p.shouldPage {
		return p.w.Write(b)
	}

	if p.stopped {
		return 0, io.EOF
	}

	width, height, err := term.GetSize(p.fd)
	if err != nil {
		return p.w.Write(b)
	}

	p.buf.Write(b)

	written := 0
	for p.buf.Len() > 0 {
		// height-1 leaves room for "--More--".
		if p.rows >= height-1 {
			err := p.paginate()
			if err != nil {
				return written, err
			}

			// 'G' turns paging off. Pass the rest through.
			if !p.shouldPage {
				n, err := p.w.Write(p.buf.Bytes())
				p.buf.Reset()
				return written + n, err
			}
		}

		line, err := p.buf.ReadString('\n')
		if err != nil && err != io.EOF {
			return written, err
		}

		n, err := io.WriteString(p.w, line)
		written += n
		if err != nil {
			return written, err
		}

		p.rows += rowsFor(line, width)
	}

	return len(b), nil
}

func (p *pager) paginate() error {
	more := "--More--"
	clear := "\r" + strings.Repeat(" ", len(more)) + "\r"

	for {
		if _, err := io.WriteString(p.w, more); err != nil {
			return err
		}

		b, err := p.r.ReadByte()
		if err != nil {
			return err
		}

		if _, err := io.WriteString(p.w, clear); err != nil {
			return err
		}

		switch b {
		case 'q':
			p.stopped = true
			return io.EOF
		case ' ':
			p.rows = 0
			return nil
		case '\r', 'j':
			p.rows--
			return nil
		case 'G':
			p.shouldPage = false
			return nil
		case '\x1b':
			var seq [2]byte
			if _, err := io.ReadFull(p.r, seq[:]); err != nil {
				return err
			}
			if seq == [2]byte{'[', 'B'} {
				p.rows--
				return nil
			}
		}
	}
}
