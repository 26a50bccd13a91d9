package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-splist/core"
)

var (
	errMissingToken    = errors.New("auth: token response has no access_token")
	errMissingBaseURL  = errors.New("auth: lists base url is not configured")
	errUnexpectedShape = errors.New("auth: contextinfo response has unexpected shape")
	errEmptyDigest     = errors.New("auth: contextinfo response has empty FormDigestValue")
)

func errStatus(status int) error {
	return fmt.Errorf("auth: unexpected status %d %s", status, http.StatusText(status))
}

type nopTransport struct{}

func (nopTransport) Kind() string { return "nop" }

func (nopTransport) Do(context.Context, core.TransportRequest) (core.TransportResponse, error) {
	return core.TransportResponse{}, errors.New("auth: no transport configured")
}
