package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorInvalidCounterName is a programmer error: the caller asked for an
// order number from a counter that does not exist.
var ErrorInvalidCounterName = errors.New("invalid counter name")

// ErrorCounterExhausted is returned when a counter passes 999999 and the
// fixed-width order number format would overflow.
var ErrorCounterExhausted = errors.New("order number counter exhausted")

// ErrorAllocationTargetMismatch means a targeted purchase order has no line
// item for the part being allocated.
var ErrorAllocationTargetMismatch = errors.New("purchase order has no line for the allocated part")

// ErrorOverAllocation means the summed allocation quantities of a part line
// exceed the quantity ordered on that line.
var ErrorOverAllocation = errors.New("allocated quantity exceeds ordered quantity")

// ErrorIllegalStatusTransition means the requested status is neither the
// order's current status nor its defined successor.
var ErrorIllegalStatusTransition = errors.New("illegal status transition")

// ErrorConflictRetryExhausted is surfaced after bounded retries of the
// allocation unit of work all fail on lock conflicts.
var ErrorConflictRetryExhausted = errors.New("concurrent modification conflict; retries exhausted")
