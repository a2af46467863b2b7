// Package protocol describes the JSON envelopes exchanged with the backend
// over the message channel.
//
// Outbound requests are Envelope values built with NewAction. Inbound
// frames are decoded into Message, whose Decode method turns the loosely
// shaped params of a recognized action into one of the typed Result
// variants (ListEntityResult, GetEntityResult, ...). Shape mismatches are
// reported as *DecodeError wrapping ErrShape; unknown actions as
// ErrUnknownAction.
package protocol
