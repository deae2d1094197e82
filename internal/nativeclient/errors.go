package nativeclient

import "errors"

// ErrActorShutdown is returned by With when the actor has already begun
// shutting down and will not accept new requests.
var ErrActorShutdown = errors.New("nativeclient: actor is shut down")
