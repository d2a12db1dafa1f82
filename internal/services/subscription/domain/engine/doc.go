// Package engine runs one admin command per invocation: it asks the
// authorization gate once, then either rejects the caller or dispatches the
// typed command to its handler.
//
// The processor is stateless between invocations. It performs at most one
// authority read and at most one option write per call, and it never retries
// or swallows collaborator errors.
package engine
