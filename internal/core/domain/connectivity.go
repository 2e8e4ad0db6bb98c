package domain

// ConnectivityState is the discrete classification of the network link.
type ConnectivityState string

const (
	ConnectivityOnline   ConnectivityState = "online"
	ConnectivitySlow     ConnectivityState = "slow"
	ConnectivityUnstable ConnectivityState = "unstable"
	ConnectivityOffline  ConnectivityState = "offline"
)

// Capability is the offline capability level exposed to callers.
type Capability string

const (
	CapabilityFull    Capability = "full"
	CapabilityLimited Capability = "limited"
	CapabilityMinimal Capability = "minimal"
	CapabilityNone    Capability = "none"
)
