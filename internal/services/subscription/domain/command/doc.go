// Package command defines the admin commands a contract admin can issue and
// the registry that decodes them from transport payloads.
//
// Decoding happens at the boundary: payloads are parsed strictly and payment
// options are checked for completeness here, so the engine only ever sees
// typed, fully populated commands. Withdraw amounts stay raw strings because
// parsing them is part of executing the command.
package command
