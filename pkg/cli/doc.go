// Package cli implements the stubd command line.
//
//	stubd serve --port 4280 --config 'stubs/**/*.yaml' --watch
//	stubd validate stubs/*.yaml
//	stubd init -o stubs.yaml
//	stubd schema
//	stubd version
//
// Client commands talk to the control API of a running server, found through
// --admin-url, then STUBD_ADMIN_URL, then http://localhost:4290:
//
//	stubd status
//	stubd stubs add /users/1 --status 200 --body '{"id": 1}'
//	stubd stubs load 'stubs/**/*.yaml'
//	stubd requests list --unmatched
//	stubd settings --delay 250
//
// Server settings resolve in this order, later winning: built-in defaults,
// the server block of the loaded stub files, STUBD_* environment variables,
// then flags given on the command line.
package cli
