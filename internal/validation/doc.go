// Package validation checks transfer requests before a command is created.
//
// Every failure is a sender error: resending the same request cannot succeed.
package validation
