package core

// Error codes for domain errors.
const (
	ErrCodeValidation        = "validation_error"
	ErrCodeWeakCredential    = "weak_credential"
	ErrCodeInvalidCredential = "invalid_credential"
	ErrCodeAlreadyOnline     = "already_online"
	ErrCodeNameConflict      = "name_conflict"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeRoomNotFound      = "room_not_found"
	ErrCodeNotConnected      = "not_connected"
	ErrCodeBadRequest        = "bad_request"
)

// CoreError wraps a code and human-readable message. It is always a terminal,
// per-request rejection delivered to the requesting connection only.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
