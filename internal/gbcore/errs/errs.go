// Package errs holds the scheduler-level error kinds that cross the
// collaborator boundary as typed values, per the error taxonomy: cartridge
// and unsupported-feature errors live next to the types that raise them in
// internal/memory, while these kinds belong to the scheduler and its
// surrounding collaborators (save files, state snapshots, serial links,
// clean shutdown).
package errs

// SaveIOFailure reports that writing or reading the cartridge's external
// RAM save file failed. Logged; emulation continues with the in-memory
// RAM untouched.
type SaveIOFailure struct {
	Path string
	Err  error
}

func (e *SaveIOFailure) Error() string {
	return "save file io failed for " + e.Path + ": " + e.Err.Error()
}

func (e *SaveIOFailure) Unwrap() error { return e.Err }

// StateIOFailure reports that reading or writing a state snapshot file
// failed. A failure loading --load-state is fatal; a failure writing an
// incremental snapshot is not.
type StateIOFailure struct {
	Path string
	Err  error
}

func (e *StateIOFailure) Error() string {
	return "state snapshot io failed for " + e.Path + ": " + e.Err.Error()
}

func (e *StateIOFailure) Unwrap() error { return e.Err }

// ExternalDeviceDisconnect reports that a serial peer dropped the
// connection. Treated as "no byte available" rather than fatal: the
// transfer completes with the transport's default receive value.
type ExternalDeviceDisconnect struct {
	Peer string
}

func (e *ExternalDeviceDisconnect) Error() string {
	return "serial peer disconnected: " + e.Peer
}

// ShutdownRequested reports a clean exit requested by a backend
// collaborator (window close, EmulatorQuit action) rather than a failure.
type ShutdownRequested struct {
	Reason string
}

func (e *ShutdownRequested) Error() string {
	return "shutdown requested: " + e.Reason
}
