// Package di builds the dependency containers route handlers resolve their services from.
package di

import (
	"context"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
)

// ContainerID is the container the API server activates on every request
const ContainerID = "fern"

// NewContainer creates a container under id. The container's own diagnostics are
// written to logger at debug level. Ids are process wide; reusing one is an error.
func NewContainer(id string, logger ectologger.Logger) (ectocontainer.DIContainer, error) {
	return ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:                       id,
		AllowCaptiveDependencies: true,
		AllowMissingDependencies: true,
		LoggerConfig: &ectocontainer.DIContainerLoggerConfig{
			Prefix:  "ectoinject",
			Enabled: true,
			LogFunc: func(ctx context.Context, level, msg string) {
				logger.WithContext(ctx).WithFields(map[string]any{
					"container": id,
					"di_level":  level,
				}).Debug(msg)
			},
		},
	})
}
