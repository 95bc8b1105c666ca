package core

// NameFlags selects which fields a schema enumeration reports.
type NameFlags int

// Name enumeration flags.
const (
	// NamesAll reports system and non-system fields.
	NamesAll NameFlags = iota
	// NamesNonSystem omits system fields (those prefixed with "__").
	NamesNonSystem
	// NamesSystem reports only system fields.
	NamesSystem
)

// Includes reports whether a field called name passes the flags.
func (f NameFlags) Includes(name string) bool {
	system := IsSystemName(name)
	switch f {
	case NamesNonSystem:
		return !system
	case NamesSystem:
		return system
	default:
		return true
	}
}

// IsSystemName reports whether name is a system field such as __CLASS.
func IsSystemName(name string) bool {
	return len(name) > 2 && name[0] == '_' && name[1] == '_'
}

// Well-known field names.
const (
	PropClass        = "__CLASS"
	PropRelPath      = "__RELPATH"
	PropPath         = "__PATH"
	PropNamespace    = "__NAMESPACE"
	PropSuperclass   = "__SUPERCLASS"
	ReturnValueField = "ReturnValue"
)

// QueryLanguageWQL is the only query language providers must accept.
const QueryLanguageWQL = "WQL"

// Subsystem is the process-wide entry point of a provider. Initialize
// and Uninitialize bracket the lifetime of every other object it hands
// out.
type Subsystem interface {
	// Initialize prepares the calling process (apartment setup).
	Initialize() error

	// Uninitialize undoes Initialize.
	Uninitialize()

	// InitializeSecurity applies the process-level security policy.
	InitializeSecurity(sec Security) error

	// NewLocator creates a locator used to reach namespaces.
	NewLocator() (Locator, error)

	// SetProxyBlanket applies call-level security to a service handle.
	SetProxyBlanket(svc Services, sec Security) error
}

// Locator connects to namespaces.
type Locator interface {
	// ConnectServer opens a service handle on namespace.
	ConnectServer(namespace string) (Services, error)

	// Release drops the locator.
	Release()
}

// Services is a connected service handle for one namespace.
type Services interface {
	// ExecQuery runs a query and returns a forward-only cursor.
	ExecQuery(language, query string) (RecordCursor, error)

	// InstancesOf enumerates the live instances of a class.
	InstancesOf(class string) (RecordCursor, error)

	// GetObject retrieves a class definition by name or an instance by path.
	GetObject(path string) (Record, error)

	// ExecMethod invokes method on the object at path. in may be nil.
	// The returned record may be nil when the method has no out-parameters.
	ExecMethod(path, method string, in Record) (Record, error)

	// Release drops the service handle.
	Release()
}

// RecordCursor is a forward-only record enumerator.
type RecordCursor interface {
	// Next returns the next record, or (nil, nil) when exhausted.
	Next() (Record, error)

	// Release drops the cursor.
	Release()
}

// Record is one dynamic record: a class definition, an instance, or a
// method signature.
type Record interface {
	// Get reads a field by name. The caller owns any embedded record in
	// the result and releases it with Variant.Release.
	Get(name string) (Variant, error)

	// Put writes a field by name.
	Put(name string, value Variant) error

	// Names returns the field names selected by flags as a legacy array
	// that the caller must Destroy.
	Names(flags NameFlags) (NameArray, error)

	// BeginMethodEnumeration starts a walk of the method table.
	BeginMethodEnumeration() error

	// NextMethod returns the next method. An empty name marks the end.
	// in and out may be nil when a signature is absent.
	NextMethod() (name string, in, out Record, err error)

	// EndMethodEnumeration finishes the walk.
	EndMethodEnumeration() error

	// GetMethod returns the signature records of one method.
	GetMethod(name string) (in, out Record, err error)

	// SpawnInstance creates an empty instance of a class or signature record.
	SpawnInstance() (Record, error)

	// BeginEnumeration starts a walk over fields selected by flags.
	BeginEnumeration(flags NameFlags) error

	// Next returns the next field. An empty name marks the end. The
	// caller owns value as with Get.
	Next() (name string, value Variant, err error)

	// EndEnumeration finishes the field walk.
	EndEnumeration() error

	// Release drops the record.
	Release()
}

// NameArray is a one-dimensional, bounded array of names owned by the
// caller. Bounds are inclusive; an empty array has UpperBound below
// LowerBound.
type NameArray interface {
	LowerBound() (int, error)
	UpperBound() (int, error)
	Element(i int) (string, error)
	Destroy() error
}
