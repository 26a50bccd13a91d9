package errorreport

import "errors"

var errNoSink = errors.New("errorreport: no errors resource configured")
