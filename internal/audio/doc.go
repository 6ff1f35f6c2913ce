// Package audio plays article audio tracks. Player drives the sound device
// through oto; ClockPlayer keeps the same timeline without a device.
package audio
