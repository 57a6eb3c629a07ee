package proto

// Request is one client command. VIP is only meaningful for RequestLookup.
type Request struct {
	Type int32
	VIP  string
}

// Response is one server record. The same shape answers lookups, dumps and
// event notifications; Type tells them apart.
type Response struct {
	Type int32
	// VIP is the virtual IP the record is about.
	VIP string
	// IP is the remote peer's outer address.
	IP string
	// ID is the remote peer's identity.
	ID string
	// Name is the configuration name the lease belongs to.
	Name string
}
