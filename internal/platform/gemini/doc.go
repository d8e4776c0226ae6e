// Package gemini implements analysis.Completer using Google's Gemini API
// through the google.golang.org/genai client.
//
// The completer asks for a JSON response and maps API failures onto the
// analysis error kinds: HTTP status errors become analysis.StatusError,
// safety blocks become analysis.ErrContentBlocked, and an empty candidate
// list becomes analysis.ErrInvalidResponse. Requests are not retried.
package gemini
