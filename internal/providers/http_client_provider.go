package providers

import (
	"net/http"
	"ringsync/internal/structures"
)

// NewHttpClientProvider returns a client whose timeout is taken from
// api.timeout; zero keeps the net/http default of no timeout.
func NewHttpClientProvider(conf *structures.Config) *http.Client {
	return &http.Client{Timeout: conf.Api.Timeout}
}
