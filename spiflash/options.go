package spiflash

type options struct {
	logFunc func(format string, params ...any)
	devices []Device
	noSFDP  bool
}

type Option func(*options)

// WithLogFunc sets the function used for informational messages.
func WithLogFunc(f func(format string, params ...any)) Option {
	return func(o *options) {
		o.logFunc = f
	}
}

// WithDevices adds chip definitions. They are matched before the built-in
// table.
func WithDevices(devs ...Device) Option {
	return func(o *options) {
		o.devices = append(o.devices, devs...)
	}
}

// WithoutSFDP skips parameter discovery, only the ID table is used.
func WithoutSFDP() Option {
	return func(o *options) {
		o.noSFDP = true
	}
}
