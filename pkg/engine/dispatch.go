package engine

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getmockd/stubd/pkg/registry"
	"github.com/getmockd/stubd/pkg/stub"
	"github.com/getmockd/stubd/pkg/wire"
)

// ServerHeader is the value of the Server header on every response.
const ServerHeader = "stubd/1.0"

// managedHeaders are computed for every response and always precede the
// registered ones.
var managedHeaders = []string{"Content-Type", "Content-Length", "Server", "Connection"}

// Dispatch answers req from reg. It reports whether a registered response
// matched.
//
// The lookup uses req.URL verbatim. For PUT and POST requests an entry with
// EchoRequestBody set has its body replaced by req.Body first, and the
// replacement stays in the registry. An unknown URL gets a 500 with an empty
// body.
func Dispatch(req *wire.Request, reg *registry.Registry) (*wire.Response, bool) {
	resp, ok := reg.Resolve(req.URL, req.Body, wire.BodyMethod(req.Method))
	if !ok {
		return compose(http.StatusInternalServerError, stub.DefaultContentType, nil, nil), false
	}
	return compose(resp.StatusCode, resp.ContentType, resp.Headers, resp.Body), true
}

// compose lays out the managed headers, then the registered ones sorted by
// name. A registered header whose name matches a managed one in any case is
// dropped.
func compose(status int, contentType string, headers map[string]string, body []byte) *wire.Response {
	if contentType == "" {
		contentType = stub.DefaultContentType
	}

	fields := make([]wire.HeaderField, 0, len(managedHeaders)+len(headers))
	fields = append(fields,
		wire.HeaderField{Name: "Content-Type", Value: contentType},
		wire.HeaderField{Name: "Content-Length", Value: strconv.Itoa(len(body))},
		wire.HeaderField{Name: "Server", Value: ServerHeader},
		wire.HeaderField{Name: "Connection", Value: "closed"},
	)

	names := make([]string, 0, len(headers))
	for name := range headers {
		if !isManaged(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fields = append(fields, wire.HeaderField{Name: name, Value: headers[name]})
	}

	return &wire.Response{StatusCode: status, Header: fields, Body: body}
}

func isManaged(name string) bool {
	for _, m := range managedHeaders {
		if strings.EqualFold(name, m) {
			return true
		}
	}
	return false
}
