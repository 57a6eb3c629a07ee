package proto

// Request types.
const (
	// RequestLookup asks for the entry holding one virtual IP.
	RequestLookup int32 = 0
	// RequestDump asks for one entry per currently assigned virtual IP.
	RequestDump int32 = 1
	// RequestRegisterUp subscribes the connection to lease-up events.
	RequestRegisterUp int32 = 2
	// RequestRegisterDown subscribes the connection to lease-down events.
	RequestRegisterDown int32 = 3
	// RequestEnd terminates the request loop for this connection.
	RequestEnd int32 = 4
)

// Response types.
const (
	// ResponseEntry answers a lookup or dump request.
	ResponseEntry int32 = 0
	// ResponseNotifyUp reports a lease coming up to an up-subscriber.
	ResponseNotifyUp int32 = 1
	// ResponseNotifyDown reports a lease going down to a down-subscriber.
	ResponseNotifyDown int32 = 2
)

// Fixed string field widths, including the terminating NUL.
const (
	VIPLen  = 40
	IPLen   = 40
	IDLen   = 128
	NameLen = 40
)

// Record sizes on the wire.
const (
	RequestSize  = 4 + VIPLen
	ResponseSize = 4 + VIPLen + IPLen + IDLen + NameLen
)
