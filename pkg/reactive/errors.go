package reactive

import "errors"

// ErrOwnerDisposed is returned when work is started on a disposed Owner.
// Stores surface it when a session was reset while an action was waiting.
var ErrOwnerDisposed = errors.New("reactive: owner disposed")
