// Package wbem is the object-model bridge between wbemctl and a provider.
//
// It turns the provider contract of pkg/core (dynamically typed records,
// legacy name arrays, reference counted handles) into a small typed API:
//
//	sess, _ := wbem.Initialize(subsystem, logger)
//	defer sess.Close()
//
//	svc, _ := wbem.Connect(sess, `ROOT\CIMV2`)
//	defer svc.Release()
//
//	disks, _ := svc.Instances("Win32_LogicalDisk")
//	defer wbem.ReleaseAll(disks)
//
// Every provider failure is converted where it happens into an *Error
// carrying a Kind, the provider status and the conversion site.
// Enumerations are all-or-nothing.
//
// The bridge does not lock. Callers serialise use of a Session and
// everything derived from it.
package wbem
