package services

import (
	"context"
	"io"
	"log/slog"
	stdsync "sync"
	"testing"
	"time"

	"github.com/davidbalbert/chatline/config"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	id  config.ServiceID
	log *startLog
}

func (f *fakeService) Run(ctx context.Context) error {
	f.log.add(f.id.Name)
	<-ctx.Done()
	return nil
}

type startLog struct {
	mu     stdsync.Mutex
	starts []string
}

func (l *startLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.starts = append(l.starts, name)
}

func (l *startLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.starts...)
}

func TestServicesStartInBootOrder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cm, err := config.NewConfigManager("", logger)
	require.NoError(t, err)

	log := &startLog{}
	var built []string

	r := NewRegistry()
	for _, id := range []config.ServiceID{config.ServiceAPIServer, config.ServiceEngine, config.ServiceCatalogWatcher} {
		id := id
		r.MustRegister(id.Type, func(running Services, conf *config.Config) (Runner, error) {
			if id == config.ServiceAPIServer {
				_, ok := running.Get(config.ServiceEngine)
				require.True(t, ok, "engine should start before the API server")
			}

			built = append(built, id.Name)
			return &fakeService{id: id, log: log}, nil
		})
	}

	require.Panics(t, func() {
		r.MustRegister(config.ServiceTypeEngine, nil)
	})

	m := NewServiceManager(cm, r, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- m.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(log.get()) == 2
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, []config.ServiceID{config.ServiceAPIServer, config.ServiceEngine}, m.RunningServices())

	conf := config.Default()
	conf.Catalog = "/tmp/items.yaml"
	require.NoError(t, cm.UpdateConfig(conf))

	require.Eventually(t, func() bool {
		return len(log.get()) == 5
	}, time.Second, 5*time.Millisecond)

	service, err := m.Get(config.ServiceCatalogWatcher)
	require.NoError(t, err)
	require.NotNil(t, service)

	cancel()
	require.NoError(t, <-done)

	require.Equal(t, []string{
		"Engine", "APIServer",
		"CatalogWatcher", "Engine", "APIServer",
	}, built)
}
