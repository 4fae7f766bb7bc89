package interfaces

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for pushing task events to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a payload to every connected listener.
	Broadcast(payload interface{})

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
