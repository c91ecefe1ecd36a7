package glcontext

import "github.com/gogpu/glcontext/imagestore"

// Option configures a Context during New.
type Option func(*options)

type options struct {
	profile    Profile
	group      *ShareGroup
	driver     Driver
	driverName string
	storeCfg   imagestore.Config
}

func defaultOptions() options {
	return options{profile: ES2Profile()}
}

// WithProfile selects the capability profile. Profiles are fixed at
// creation; there is no way to change limits on a live context.
func WithProfile(p Profile) Option {
	return func(o *options) { o.profile = p }
}

// WithShareGroup places the context in an existing share group. The
// context does not own the group; destroying the context leaves it
// open.
func WithShareGroup(g *ShareGroup) Option {
	return func(o *options) { o.group = g }
}

// WithDriver injects a driver instance, bypassing the registry. The
// context does not own the driver; Destroy will not close it.
func WithDriver(d Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithDriverName selects a registered driver by name instead of by
// priority.
func WithDriverName(name string) Option {
	return func(o *options) { o.driverName = name }
}

// WithStoreConfig sets the image store limits used when the context
// creates its own private share group. Ignored when WithShareGroup is
// also given.
func WithStoreConfig(cfg imagestore.Config) Option {
	return func(o *options) { o.storeCfg = cfg }
}
