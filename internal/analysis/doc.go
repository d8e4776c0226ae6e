// Package analysis defines the separation-analysis contract used by the
// session core and the provider-independent parts of it: building the prompt
// from a template, extracting the JSON document from a model reply, and the
// error kinds every adapter maps its failures onto.
//
// Concrete text-generation clients live in internal/platform/gemini and
// internal/platform/openai; they implement Completer and are wrapped by
// Service to obtain a Gateway.
package analysis
