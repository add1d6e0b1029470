//go:build !linux

package gpio

import (
	"errors"
)

var errCdevUnsupported = errors.New("GPIO character device is only available on Linux")

// cdev is unavailable outside Linux; New never selects it there.
type cdev struct{}

func newCdev(_ string) *cdev {
	return &cdev{}
}

func cdevAvailable(_ string) bool {
	return false
}

func (c *cdev) Configure(_ ...int) error {
	return errCdevUnsupported
}

func (c *cdev) Set(_ int, _ bool) error {
	return errCdevUnsupported
}

func (c *cdev) Close() error {
	return nil
}

func (c *cdev) Name() string {
	return BackendCdev
}
