package chat

import (
	"io"
	"log/slog"
	stdsync "sync"
	"testing"

	"github.com/davidbalbert/chatline/catalog"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    stdsync.Mutex
	lines []string
}

func (r *recorder) Send(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, line)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.lines...)
}

var items = []catalog.Item{
	{Name: "Iron Sword", Handle: "iron_sword"},
	{Name: "Iron", Handle: "iron_ingot"},
	{Name: "Stone", Handle: "stone"},
	{Name: "Diamond", Handle: "diamond"},
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := NewEngine(Options{
		Catalog: catalog.NewStore(catalog.NewIndex(items)),
		Logger:  quietLogger(),
	})
	require.NoError(t, err)

	return e
}
