// Package ole provides the Windows WMI provider.
//
// It drives the WMI scripting API (SWbemLocator, SWbemServices,
// SWbemObject) through github.com/go-ole/go-ole. COM objects created in a
// single-threaded apartment may only be used from the thread that
// created them, so every call runs on one goroutine locked to its OS
// thread for the lifetime of the provider.
//
// The provider registers itself as "ole" from init() on Windows builds.
package ole
