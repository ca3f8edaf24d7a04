package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/davidbalbert/chatline/config"
	"golang.org/x/sync/errgroup"
)

type Runner interface {
	Run(ctx context.Context) error
}

// Services lets a builder find the services started before it.
type Services interface {
	Get(id config.ServiceID) (Runner, bool)
}

type BuilderFunc func(running Services, conf *config.Config) (Runner, error)

type Registry struct {
	builders map[config.ServiceType]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[config.ServiceType]BuilderFunc)}
}

func (r *Registry) register(t config.ServiceType, fn BuilderFunc) error {
	_, ok := r.builders[t]
	if ok {
		return fmt.Errorf("service type already registered: %v", t)
	}

	r.builders[t] = fn

	return nil
}

func (r *Registry) MustRegister(t config.ServiceType, fn BuilderFunc) {
	err := r.register(t, fn)
	if err != nil {
		panic(err)
	}
}

type ServiceController struct {
	service Runner
	id      config.ServiceID
	cancel  context.CancelFunc
	done    chan struct{}
}

func (c *ServiceController) Stop() {
	c.cancel()
}

func (c *ServiceController) Wait() {
	<-c.done
}

type state struct {
	controllers map[config.ServiceID]*ServiceController
}

func (st state) Get(id config.ServiceID) (Runner, bool) {
	c, ok := st.controllers[id]
	if !ok {
		return nil, false
	}

	return c.service, true
}

// ServiceManager runs the services the config asks for, in dependency
// order. When the config changes, every service is stopped and the new set
// is started from scratch.
type ServiceManager struct {
	st            chan state
	configManager *config.ConfigManager
	registry      *Registry
	logger        *slog.Logger
}

func NewServiceManager(configManager *config.ConfigManager, registry *Registry, logger *slog.Logger) *ServiceManager {
	st := state{
		controllers: make(map[config.ServiceID]*ServiceController),
	}

	c := make(chan state, 1)
	c <- st

	return &ServiceManager{
		st:            c,
		configManager: configManager,
		registry:      registry,
		logger:        logger,
	}
}

func (s *ServiceManager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	confCh := make(chan *config.Config, 1)

	g.Go(func() error {
		conf, seq := s.configManager.LastChange()
		for {
			select {
			case <-ctx.Done():
				return nil
			case confCh <- conf:
			}

			conf, seq = s.configManager.AwaitChange(ctx, seq)
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case conf := <-confCh:
				st := <-s.st

				for _, controller := range st.controllers {
					controller.Stop()
				}

				for id, controller := range st.controllers {
					controller.Wait()
					delete(st.controllers, id)
				}

				for _, id := range conf.ServicesInBootOrder() {
					err := s.start(ctx, g, st, id, conf)
					if err != nil {
						s.st <- st
						return err
					}
				}

				s.st <- st
			}
		}
	})

	return g.Wait()
}

func (s *ServiceManager) start(ctx context.Context, g *errgroup.Group, st state, id config.ServiceID, conf *config.Config) error {
	_, ok := st.controllers[id]
	if ok {
		return fmt.Errorf("service already running: %s", id)
	}

	builder, ok := s.registry.builders[id.Type]
	if !ok {
		return fmt.Errorf("unknown service type: %v", id.Type)
	}

	service, err := builder(st, conf)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}

	ctx, cancel := context.WithCancel(ctx)

	done := make(chan struct{})

	st.controllers[id] = &ServiceController{
		service: service,
		id:      id,
		cancel:  cancel,
		done:    done,
	}

	s.logger.Info("starting service", "service", id.Name)

	g.Go(func() error {
		defer close(done)

		err := service.Run(ctx)
		if err != nil {
			s.logger.Error("service failed", "service", id.Name, "err", err)
		}

		return err
	})

	return nil
}

func (s *ServiceManager) Get(id config.ServiceID) (Runner, error) {
	st := <-s.st
	defer func() {
		s.st <- st
	}()

	service, ok := st.Get(id)
	if !ok {
		return nil, fmt.Errorf("service not running: %s", id)
	}

	return service, nil
}

func (s *ServiceManager) ConfigManager() *config.ConfigManager {
	return s.configManager
}

// RunningServices returns running services sorted by type.
func (s *ServiceManager) RunningServices() []config.ServiceID {
	st := <-s.st
	defer func() {
		s.st <- st
	}()

	var ids []config.ServiceID
	for id := range st.controllers {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Type < ids[j].Type
	})

	return ids
}
