package valueactor

import "errors"

// ErrNoValueYet distinguishes "cell exists but empty" (e.g. a LINK
// awaiting interaction) from ErrActorDropped ("cell is gone").
var ErrNoValueYet = errors.New("valueactor: no value yet")

// ErrActorDropped indicates the cell died before producing a value, or
// was torn down mid-request.
var ErrActorDropped = errors.New("valueactor: actor dropped")
