package updater

import (
	"context"

	"github.com/ylingtech/updatewatch/internal/version"
)

// Reloader switches the host over to a newly applied build.
type Reloader interface {
	Reload(ctx context.Context, d version.Descriptor) error
}

// ReloaderFunc adapts a function to the Reloader interface.
type ReloaderFunc func(ctx context.Context, d version.Descriptor) error

// Reload calls f.
func (f ReloaderFunc) Reload(ctx context.Context, d version.Descriptor) error {
	return f(ctx, d)
}

type nopReloader struct{}

func (nopReloader) Reload(context.Context, version.Descriptor) error { return nil }
