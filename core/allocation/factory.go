package allocation

import (
	"time"

	"github.com/kilianp07/cabmatch/core/factory"
	"github.com/kilianp07/cabmatch/core/geo"
)

// Deps carries the collaborators shared by every strategy.
type Deps struct {
	Distance       geo.DistanceProvider
	Fare           FareCalculator
	Radius         RadiusPolicy
	LivenessWindow time.Duration
}

var strategyRegistry = factory.NewRegistry[Deps, Strategy]()

func init() {
	_ = RegisterStrategy("nearest", func(deps Deps, conf map[string]any) (Strategy, error) {
		var c struct{}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewNearestStrategy(deps.Distance, deps.Fare, deps.Radius, deps.LivenessWindow), nil
	})
}

// RegisterStrategy adds a strategy factory identified by name.
func RegisterStrategy(name string, f factory.Factory[Deps, Strategy]) error {
	return strategyRegistry.Register(name, f)
}

// NewStrategy creates the strategy selected by cfg.
func NewStrategy(deps Deps, cfg factory.ModuleConfig) (Strategy, error) {
	return strategyRegistry.Create(deps, cfg)
}

// StrategyNames lists the registered strategies.
func StrategyNames() []string { return strategyRegistry.Names() }
