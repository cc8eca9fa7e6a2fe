package capture

import "gocv.io/x/gocv"

// Authorizer models asynchronous camera-use authorization. Request returns
// immediately; the callback is invoked later, from another goroutine, with
// the decision. There is no timeout and no retry: a denied request is a
// terminal state for the session.
type Authorizer interface {
	Request(callback func(granted bool))
}

// DeviceAuthorizer grants access when the capture device can be opened.
// Opening the device once is how the OS surfaces its camera permission to a
// headless process: a denied permission or a missing device both fail here.
type DeviceAuthorizer struct {
	DeviceID int
}

// Request probes the device on a background goroutine.
func (a *DeviceAuthorizer) Request(callback func(granted bool)) {
	go func() {
		capture, err := gocv.OpenVideoCapture(a.DeviceID)
		if err != nil {
			callback(false)
			return
		}
		capture.Close()
		callback(true)
	}()
}

// StaticAuthorizer answers every request with a fixed decision. Used in
// tests and for deployments where device access is known ahead of time.
type StaticAuthorizer struct {
	Granted bool
}

// Request delivers the fixed decision asynchronously.
func (a StaticAuthorizer) Request(callback func(granted bool)) {
	go callback(a.Granted)
}
