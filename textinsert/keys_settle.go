//go:build darwin || windows

package textinsert

const keyDeviceSettle = 0
