package watch

import (
	"fmt"
	"log/slog"

	"github.com/randomizedcoder/multiwatch/internal/config"
	"github.com/randomizedcoder/multiwatch/internal/loop"
)

// Deps are the collaborators shared by every watch.
type Deps struct {
	Scheduler loop.Scheduler
	Spawner   Spawner
	Sink      Sink
	Redrawer  Redrawer
	Logger    *slog.Logger
}

// RetriggerFor picks the strategy a spec asks for: a wait command when one
// is configured, otherwise a fixed delay of the spec's timeout.
func RetriggerFor(spec config.WatchSpec, defaultTimeout float64) Retrigger {
	if spec.WaitCommand != nil {
		return DependentCommand{Argv: append([]string(nil), spec.WaitCommand.Cmd...)}
	}
	return Seconds(spec.TimeoutOr(defaultTimeout))
}

// FromSpec builds a watch from one configuration entry.
func FromSpec(id int, spec config.WatchSpec, defaultTimeout float64, deps Deps) (*Watch, error) {
	argv, err := spec.Argv()
	if err != nil {
		return nil, err
	}
	return New(Config{
		ID:        id,
		Title:     spec.Title,
		Argv:      argv,
		Retrigger: RetriggerFor(spec, defaultTimeout),
		Scheduler: deps.Scheduler,
		Spawner:   deps.Spawner,
		Sink:      deps.Sink,
		Redrawer:  deps.Redrawer,
		Logger:    deps.Logger,
	})
}

// FromConfig builds one watch per configured spec, in order.
func FromConfig(cfg *config.Config, deps Deps) ([]*Watch, error) {
	watches := make([]*Watch, 0, len(cfg.Watches))
	for i, spec := range cfg.Watches {
		w, err := FromSpec(i, spec, cfg.DefaultTimeout, deps)
		if err != nil {
			return nil, fmt.Errorf("watches[%d]: %w", i, err)
		}
		watches = append(watches, w)
	}
	return watches, nil
}
