// Package httputil fetches remote image sources over HTTP.
//
// [Client] performs GET requests, classifies status codes into
// [github.com/matzehuels/glitchimage/pkg/errors] codes and reports every
// request to the observability HTTP hooks. Retries are opt-in: a client
// built with Retries == 0 makes exactly one attempt.
//
// [Retry] is the backoff loop used by the client. Only failures wrapped in
// [RetryableError] are attempted again; 5xx responses, 429 responses and
// transport errors are wrapped that way, 4xx responses are not.
package httputil
