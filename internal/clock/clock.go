package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time so services can be tested with a fixed or
// advancing clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewSystemClock() Clock { return systemClock{} }

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
