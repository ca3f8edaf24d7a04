package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/davidbalbert/chatline/commands"
	"github.com/davidbalbert/chatline/rpc"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// localPrefix marks lines meant for chatlinec itself rather than the
// daemon.
const localPrefix = ":"

func commonPrefixLen(ss ...string) int {
	if len(ss) == 0 {
		return 0
	}

	first := []rune(ss[0])
	prefixLen := len(first)
	for _, s := range ss[1:] {
		i := 0
		for _, r := range s {
			if i >= prefixLen || r != first[i] {
				break
			}
			i++
		}
		prefixLen = i
	}

	return prefixLen
}

type fder interface {
	Fd() uintptr
}

type writeFder interface {
	io.Writer
	Fd() uintptr
}

type readWriteFder interface {
	io.ReadWriter
	Fd() uintptr
}

type CLI struct {
	ctx     context.Context
	client  rpc.APIService
	session string
	local   *commands.Dispatcher
	running bool
	prompt  string
	lastKey rune
}

func NewCLI(ctx context.Context, client rpc.APIService, session string) *CLI {
	cli := &CLI{
		ctx:     ctx,
		client:  client,
		session: session,
		local:   commands.NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil))),
		prompt:  "chatlinec> ",
	}

	registerLocalCommands(cli)

	return cli
}

// tabulate renders items as a table with one column per header. Widths are
// measured in terminal cells.
func tabulate[T any](items []T, headers []string, f func(T) []string) ([]string, error) {
	columnWidths := make([]int, len(headers))
	for i, h := range headers {
		columnWidths[i] = runewidth.StringWidth(h)
	}

	cells := make([][]string, len(items))

	for i, item := range items {
		cells[i] = f(item)

		if len(cells[i]) != len(headers) {
			return nil, fmt.Errorf("invalid number of columns for item %d", i)
		}

		for j, cell := range cells[i] {
			if w := runewidth.StringWidth(cell); w > columnWidths[j] {
				columnWidths[j] = w
			}
		}
	}

	pad := func(s string, width int) string {
		return runewidth.FillRight(s, width+3)
	}

	table := make([]string, len(items)+2)

	var header, separator strings.Builder
	for i, h := range headers {
		header.WriteString(pad(h, columnWidths[i]))
		separator.WriteString(pad(strings.Repeat("-", columnWidths[i]), columnWidths[i]))
	}
	table[0] = strings.TrimRight(header.String(), " ")
	table[1] = strings.TrimRight(separator.String(), " ")

	for i, row := range cells {
		var b strings.Builder
		for j, cell := range row {
			b.WriteString(pad(cell, columnWidths[j]))
		}
		table[i+2] = strings.TrimRight(b.String(), " ")
	}

	return table, nil
}

func wrap(f fder, indent int, words []string) []string {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return words
	}

	return wrapWidth(width, indent, words)
}

// wrapWidth lays words out in columns, filling each column top to bottom
// like ls(1).
func wrapWidth(width, indent int, words []string) []string {
	width -= indent

	longest := 0
	for _, w := range words {
		if l := runewidth.StringWidth(w); l > longest {
			longest = l
		}
	}

	perRow := width / (longest + 2)

	if perRow == 0 {
		return words
	}

	rows := len(words) / perRow
	if len(words)%perRow != 0 {
		rows++
	}

	lines := make([]string, rows)
	for i := 0; i < rows; i++ {
		var b strings.Builder
		b.WriteString(strings.Repeat(" ", indent))

		for j := 0; j < perRow; j++ {
			index := i + j*rows
			if index >= len(words) {
				break
			}

			if j == perRow-1 || index+rows >= len(words) {
				b.WriteString(words[index])
			} else {
				b.WriteString(runewidth.FillRight(words[index], longest+2))
			}
		}

		lines[i] = b.String()
	}

	return lines
}

// byteOffset converts a rune position in s to a byte offset.
func byteOffset(s string, runePos int) int {
	i := 0
	for off := range s {
		if i == runePos {
			return off
		}
		i++
	}

	return len(s)
}

// applySuggestion replaces the runes [start, end) of line with text and
// returns the new line and the rune position just after the inserted text.
func applySuggestion(line string, start, end int, text string) (string, int) {
	runes := []rune(line)
	if end > len(runes) {
		end = len(runes)
	}
	if start > end {
		start = end
	}

	newLine := string(runes[:start]) + text + string(runes[end:])

	return newLine, start + utf8.RuneCountInString(text)
}

// complete asks the right dispatcher for completions at pos, a rune
// position in line.
func (cli *CLI) complete(line string, pos int) (rpc.Completion, error) {
	if strings.HasPrefix(line, localPrefix) {
		shift := utf8.RuneCountInString(localPrefix)
		comp, err := cli.local.Complete(cli.ctx, strings.TrimPrefix(line, localPrefix), pos-shift, nil)
		if err != nil {
			return rpc.Completion{}, err
		}

		c := rpc.Completion{
			Start:       comp.Suggestions.Range.Start + shift,
			End:         comp.Suggestions.Range.End + shift,
			ErrorCursor: -1,
		}
		for _, s := range comp.Suggestions.List {
			c.Suggestions = append(c.Suggestions, rpc.Suggestion{
				Text:    s.Text,
				Tooltip: s.Tooltip,
				Start:   s.Range.Start + shift,
				End:     s.Range.End + shift,
			})
		}
		for _, u := range comp.Usage {
			c.Usage = append(c.Usage, localPrefix+u)
		}

		return c, nil
	}

	return cli.client.Suggest(cli.ctx, cli.session, line, pos)
}

func texts(suggestions []rpc.Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Text
	}

	return out
}

func (cli *CLI) autocompleteWithTab(w writeFder, line string, pos int) (newLine string, newPos int, ok bool) {
	comp, err := cli.complete(line, pos)
	if err != nil {
		fmt.Fprintf(w, "%s%s\n", cli.prompt, line)
		fmt.Fprintf(w, "%% Error getting suggestions: %v\n", err)
		return "", 0, false
	}

	options := texts(comp.Suggestions)

	switch {
	case len(options) == 0:
		fmt.Fprintf(w, "\a")
		return "", 0, false
	case len(options) == 1:
		s := comp.Suggestions[0]
		newLine, newPos := applySuggestion(line, s.Start, s.End, s.Text)

		rest := []rune(newLine)[newPos:]
		if len(rest) == 0 || rest[0] != ' ' {
			newLine, newPos = applySuggestion(newLine, newPos, newPos, " ")
		}

		return newLine, newPos, true
	case cli.lastKey != '\t':
		common := string([]rune(options[0])[:commonPrefixLen(options...)])
		fmt.Fprintf(w, "\a")

		if utf8.RuneCountInString(common) <= comp.End-comp.Start {
			return "", 0, false
		}

		newLine, newPos := applySuggestion(line, comp.Start, comp.End, common)
		return newLine, newPos, true
	default:
		fmt.Fprintf(w, "%s%s\n", cli.prompt, line)

		for _, l := range wrap(w, 0, options) {
			fmt.Fprintf(w, "%s\n", l)
		}

		return "", 0, false
	}
}

func (cli *CLI) autocompleteWithQuestionMark(w writeFder, line string, pos int) (newLine string, newPos int, ok bool) {
	comp, err := cli.complete(line, pos)
	if err != nil {
		fmt.Fprintf(w, "%s%s\n", cli.prompt, line)
		fmt.Fprintf(w, "%% Error getting suggestions: %v\n", err)
		return line, pos, true
	}

	fmt.Fprintf(w, "%s%s\n", cli.prompt, line)

	describe(w, comp)

	return line, pos, true
}

// describe prints suggestions with their tooltips, usage hints, or the
// problem with the line, in that order of preference.
func describe(w io.Writer, comp rpc.Completion) {
	switch {
	case len(comp.Suggestions) > 0:
		longest := 0
		for _, s := range comp.Suggestions {
			if l := runewidth.StringWidth(s.Text); l > longest {
				longest = l
			}
		}

		for _, s := range comp.Suggestions {
			if s.Tooltip == "" {
				fmt.Fprintf(w, "  %s\n", s.Text)
				continue
			}

			fmt.Fprintf(w, "  %s  %s\n", runewidth.FillRight(s.Text, longest), s.Tooltip)
		}
	case len(comp.Usage) > 0:
		for _, u := range comp.Usage {
			fmt.Fprintf(w, "  %s\n", u)
		}
	case comp.Error != "":
		fmt.Fprintf(w, "%% %s\n", comp.Error)
	default:
		fmt.Fprintf(w, "  <cr>\n")
	}
}

func (cli *CLI) autocomplete(w writeFder, line string, pos int, key rune) (newLine string, newPos int, ok bool) {
	defer func() {
		cli.lastKey = key
	}()

	if key != '\t' && key != '?' {
		return "", 0, false
	}

	runePos := utf8.RuneCountInString(line[:pos])

	if key == '\t' {
		newLine, newPos, ok = cli.autocompleteWithTab(w, line, runePos)
	} else {
		newLine, newPos, ok = cli.autocompleteWithQuestionMark(w, line, runePos)
	}

	if !ok {
		return "", 0, false
	}

	return newLine, byteOffset(newLine, newPos), true
}

type terminal struct {
	*term.Terminal
	fder
}

type writerSender struct {
	w io.Writer
}

func (s writerSender) Send(line string) {
	fmt.Fprintf(s.w, "%s\n", line)
}

func (cli *CLI) runLine(line string, w io.Writer) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if strings.HasPrefix(line, localPrefix) {
		res, err := cli.local.Dispatch(strings.TrimPrefix(line, localPrefix), writerSender{w})
		if err != nil {
			fmt.Fprintf(w, "%% %v\n", err)
		} else if res.Err != nil {
			fmt.Fprintf(w, "%% Error running command: %v\n", res.Err)
		}
		return
	}

	res, err := cli.client.Dispatch(cli.ctx, cli.session, line)
	if err != nil {
		fmt.Fprintf(w, "%% Error running command: %v\n", err)
		return
	}

	if !res.IsCommand {
		fmt.Fprintf(w, "(chat) %s\n", line)
		return
	}

	for _, l := range res.Output {
		fmt.Fprintf(w, "%s\n", l)
	}

	if res.Error != "" {
		fmt.Fprintf(w, "%% %s\n", res.Error)
	}
}

func (cli *CLI) Run(rw readWriteFder) {
	t := &terminal{term.NewTerminal(rw, cli.prompt), rw}

	autoCompleteCallback := func(line string, pos int, key rune) (newLine string, newPos int, ok bool) {
		return cli.autocomplete(t, line, pos, key)
	}

	t.AutoCompleteCallback = autoCompleteCallback

	cli.running = true

	for cli.running {
		line, err := t.ReadLine()
		if err == io.EOF {
			// On ^C, Terminal.ReadLine returns io.EOF without clearing its
			// buffer, so every later call would return the same line.
			// Starting a fresh terminal resets it.
			t = &terminal{term.NewTerminal(rw, cli.prompt), rw}
			t.AutoCompleteCallback = autoCompleteCallback

			fmt.Fprintln(t)
		} else if err != nil {
			fmt.Fprintf(t, "%% Error reading line: %v\n", err)
			break
		}

		cli.runLine(line, newPager(rw, t))
	}
}
