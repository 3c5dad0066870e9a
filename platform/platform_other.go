//go:build !darwin && !linux && !windows

package platform

import "errors"

type unsupported struct{}

// New returns capabilities that never find a frontmost application.
func New() Capabilities { return unsupported{} }

func (unsupported) SelfID() string                      { return SelfID }
func (unsupported) FrontmostApp() (string, bool)        { return "", false }
func (unsupported) Activate(string) error               { return errors.ErrUnsupported }
func (unsupported) CheckPermission(Permission) Status   { return StatusGranted }
func (unsupported) RequestPermission(Permission) Status { return StatusGranted }
