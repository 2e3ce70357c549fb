package common

import "errors"

// ErrorNotFound is returned by repositories when no row matches. Services
// translate it into a client-facing NotFoundError.
var ErrorNotFound = errors.New("not found")
