package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/davidbalbert/chatline/catalog"
	"github.com/davidbalbert/chatline/commands"
	"github.com/davidbalbert/chatline/config"
	"github.com/davidbalbert/chatline/events"
	"github.com/davidbalbert/chatline/players"
	"github.com/davidbalbert/chatline/scan"
	"github.com/davidbalbert/chatline/sync"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/errgroup"
)

// DefaultEventBacklog bounds the number of host events waiting for Run.
const DefaultEventBacklog = 1024

type Options struct {
	Prefix         string
	MaxSuggestions int
	Capacity       int
	AllowSelf      bool
	EventBacklog   int
	Catalog        *catalog.Store
	Logger         *slog.Logger
}

// OptionsFromConfig maps the daemon configuration onto engine options.
func OptionsFromConfig(c *config.Config, store *catalog.Store, logger *slog.Logger) Options {
	return Options{
		Prefix:         c.Prefix,
		MaxSuggestions: c.MaxSuggestions,
		Capacity:       c.Players.Capacity,
		AllowSelf:      c.Players.AllowSelf,
		Catalog:        store,
		Logger:         logger,
	}
}

// Engine ties the command tree to the rest of the client: it knows the
// command prefix, which players have been seen, who is ignored and what
// items exist.
type Engine struct {
	prefix   string
	d        *commands.Dispatcher
	registry *Registry
	known    *players.KnownUsernames
	ignored  *IgnoreList
	store    *catalog.Store
	detector *Detector
	logger   *slog.Logger

	events *sync.QueuedNotifier[events.Event]
	token  sync.Token
}

func NewEngine(opts Options) (*Engine, error) {
	if opts.Prefix == "" {
		opts.Prefix = config.DefaultPrefix
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.NewStore(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.EventBacklog <= 0 {
		opts.EventBacklog = DefaultEventBacklog
	}

	e := &Engine{
		prefix:   opts.Prefix,
		d:        commands.NewDispatcher(opts.Logger),
		known:    players.NewKnownUsernames(opts.Capacity),
		ignored:  NewIgnoreList(),
		store:    opts.Catalog,
		detector: NewDetector(opts.Catalog.Index()),
		logger:   opts.Logger,
		events:   sync.NewQueuedNotifier[events.Event](),
	}
	e.registry = NewRegistry(e.d)

	// Registered up front so events sent before Run are queued.
	e.token = e.events.RegisterBounded(opts.EventBacklog)

	deps := Deps{
		Prefix:         e.prefix,
		Known:          e.known,
		Ignored:        e.ignored,
		Catalog:        e.store,
		MaxSuggestions: opts.MaxSuggestions,
		AllowSelf:      opts.AllowSelf,
	}
	if err := RegisterBuiltins(e.registry, deps); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) Dispatcher() *commands.Dispatcher {
	return e.d
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) Known() *players.KnownUsernames {
	return e.known
}

func (e *Engine) Ignored() *IgnoreList {
	return e.ignored
}

func (e *Engine) Catalog() *catalog.Store {
	return e.store
}

func (e *Engine) Prefix() string {
	return e.prefix
}

// IsCommand reports whether line should be handled by Handle rather than
// sent to the server as chat.
func (e *Engine) IsCommand(line string) bool {
	return strings.HasPrefix(line, e.prefix)
}

// Outcome is the result of handling a line of user input. Lines without
// the command prefix are not commands and are left for the host to send.
type Outcome struct {
	IsCommand bool
	Executed  bool
	Success   bool
	Code      int
	Error     string
}

// Handle runs line if it is a command. Syntax errors and executor failures
// are both reported in Outcome.Error; they differ in Executed.
func (e *Engine) Handle(line string, sender commands.Sender) Outcome {
	if !e.IsCommand(line) {
		return Outcome{}
	}

	input := strings.TrimPrefix(line, e.prefix)

	res, err := e.d.Dispatch(input, sender)
	if err != nil {
		msg := err.Error()
		if serr, ok := commands.AsSyntaxError(err); ok && serr.Kind == commands.ErrorUnknownCommand {
			if hint := e.didYouMean(serr.Value); hint != "" {
				msg += "; " + hint
			}
		}

		e.logger.Debug("command failed", "input", input, "error", err)
		return Outcome{IsCommand: true, Error: msg}
	}

	if res.Err != nil {
		return Outcome{IsCommand: true, Executed: true, Code: res.Code, Error: res.Err.Error()}
	}

	return Outcome{IsCommand: true, Executed: true, Success: true, Code: res.Code}
}

func (e *Engine) didYouMean(token string) string {
	if token == "" {
		return ""
	}

	ranks := fuzzy.RankFindFold(token, e.registry.Names())
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)

	var names []string
	for i, r := range ranks {
		if i == 3 {
			break
		}
		names = append(names, e.prefix+r.Target)
	}

	return fmt.Sprintf("did you mean %s?", strings.Join(names, " or "))
}

// Complete computes completions for a full input line. Cursor and every
// range in the result are rune positions in line, prefix included. A line
// without the prefix has no completions.
func (e *Engine) Complete(ctx context.Context, line string, cursor int, sender commands.Sender) (commands.Completion, error) {
	if !e.IsCommand(line) {
		if err := ctx.Err(); err != nil {
			return commands.Completion{}, err
		}

		return commands.Completion{Input: line, Cursor: cursor}, nil
	}

	shift := utf8.RuneCountInString(e.prefix)
	input := strings.TrimPrefix(line, e.prefix)

	cursor -= shift
	if cursor < 0 {
		cursor = 0
	}

	comp, err := e.d.Complete(ctx, input, cursor, sender)
	if err != nil {
		return commands.Completion{}, err
	}

	return shiftCompletion(comp, line, e.prefix, shift), nil
}

func shiftCompletion(comp commands.Completion, line, prefix string, shift int) commands.Completion {
	comp.Input = line
	comp.Cursor += shift

	comp.Suggestions.Range.Start += shift
	comp.Suggestions.Range.End += shift
	for i := range comp.Suggestions.List {
		comp.Suggestions.List[i].Range.Start += shift
		comp.Suggestions.List[i].Range.End += shift
	}

	for i, u := range comp.Usage {
		comp.Usage[i] = prefix + u
	}

	if comp.Err != nil {
		serr := *comp.Err
		serr.Input = line
		serr.Cursor += shift
		comp.Err = &serr
	}

	return comp
}

// Observation is what Observe learned from a line of incoming chat.
type Observation struct {
	Message    *scan.PlayerMessage
	Ignored    bool
	Detections []Detection
}

// Observe inspects a line received from the server. Player messages record
// the sender as a known player. ok is false for anything else.
func (e *Engine) Observe(line string) (obs Observation, ok bool) {
	msg, detections, ok := e.detector.Detect(line)
	if !ok {
		return Observation{}, false
	}

	e.known.AddKnownUsername(msg.Name)

	return Observation{
		Message:    msg,
		Ignored:    e.ignored.Contains(msg.Name),
		Detections: detections,
	}, true
}

// Detect finds item names in line without recording anything.
func (e *Engine) Detect(line string) []Detection {
	if _, detections, ok := e.detector.Detect(line); ok {
		return detections
	}

	return e.detector.DetectText(line)
}

// Login resets the known-player cache for a new session as username.
func (e *Engine) Login(username string) {
	e.known.ResetKnownUsernames(username)
}

func (e *Engine) SendEvent(event events.Event) error {
	switch event.Type {
	case events.ConfigUpdated, events.CatalogUpdated, events.MessageObserved, events.LoginReset:
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	e.events.NotifyChange(event)

	return nil
}

// DroppedEvents returns how many events were discarded because Run fell
// behind.
func (e *Engine) DroppedEvents() int {
	return e.events.Dropped(e.token)
}

// Run processes queued events and keeps the item detector in step with the
// catalog until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	defer e.events.Unregister(e.token)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.detector.Follow(ctx, e.store)
	})

	g.Go(func() error {
		reported := 0
		for {
			event, ok := e.events.AwaitChange(ctx, e.token)
			if !ok {
				return nil
			}

			if n := e.events.Dropped(e.token); n > reported {
				e.logger.Warn("event backlog overflowed", "dropped", n-reported)
				reported = n
			}

			if err := e.handleEvent(event); err != nil {
				e.logger.Warn("dropping event", "type", event.Type, "error", err)
			}
		}
	})

	return g.Wait()
}

var errBadEventData = errors.New("bad event data")

func (e *Engine) handleEvent(event events.Event) error {
	switch event.Type {
	case events.MessageObserved:
		line, ok := event.Data.(string)
		if !ok {
			return errBadEventData
		}
		e.Observe(line)
	case events.LoginReset:
		name, ok := event.Data.(string)
		if !ok {
			return errBadEventData
		}
		e.Login(name)
	case events.CatalogUpdated:
		items, ok := event.Data.([]catalog.Item)
		if !ok {
			return errBadEventData
		}
		e.store.Replace(catalog.NewIndex(items))
	case events.ConfigUpdated:
		c, ok := event.Data.(*config.Config)
		if !ok {
			return errBadEventData
		}
		if c.Prefix != e.prefix {
			e.logger.Info("prefix changes take effect on restart", "current", e.prefix, "configured", c.Prefix)
		}
	}

	return nil
}
