// Package config loads declarative stub files and server settings.
//
// A stub file is YAML (.yaml, .yml) or JSON and lists the responses to
// register, optionally with a server block and further files to include:
//
//	version: "1"
//	server:
//	  port: 8080
//	  responseDelayMs: 250
//	include:
//	  - more/**/*.yaml
//	stubs:
//	  - url: /api/users
//	    bodyFile: bodies/users.json
//	  - url: /api/echo
//	    echo: true
//	  - url: /api/down
//	    statusCode: 503
//	    contentType: text/plain
//	    body: maintenance
//
// Documents are checked against an embedded JSON schema before they are
// decoded. Body files are resolved relative to the stub file that names
// them; a body file that cannot be read turns its stub into a 500 response
// with no body instead of failing the load.
package config
