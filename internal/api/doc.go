// Package api exposes accounts, the live session and saved history over
// HTTP. Handlers translate requests into session.Controller calls and map the
// error kinds of the lower layers onto status codes through HandleAPIError,
// so no internal detail reaches a client.
package api
