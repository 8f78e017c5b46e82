package sentinel

import "errors"

// Sentinel errors for storage facts. Stores and ledgers return these (optionally
// wrapped) so services can translate them into domain errors:
//   - ErrNotFound: no record at the derived address
//   - ErrAlreadyUsed: a record already occupies the derived address
//   - ErrConflict: a concurrent writer won; the caller may reissue the request
//   - ErrInvalidState: record contents contradict the requested operation
//   - ErrUnavailable: backend temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
