package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// register adds c to the default registry. A collector registered before
// under the same descriptor is returned instead, so constructors can be
// called more than once per process.
func register[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
