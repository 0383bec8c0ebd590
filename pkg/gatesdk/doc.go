// Package gatesdk provides the wire types, OAuth2 error values, and a small
// HTTP client for talking to a codegate authorization server. The server's
// own handlers use the error values to guarantee both sides agree on the
// response shapes.
package gatesdk
