package logging

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/weaveworks/promrus"
)

var installPrometheusHookOnce = sync.OnceValue(func() error {
	hook, err := promrus.NewPrometheusHook()
	if err != nil {
		return errors.WithMessage(err, "failed to create prometheus logging hook")
	}
	logrus.AddHook(hook)
	return nil
})

// InstallPrometheusHook counts log lines per level on the default Prometheus registry.
// The hook is installed at most once per process; later calls return the result of the first.
func InstallPrometheusHook() error {
	return installPrometheusHookOnce()
}
