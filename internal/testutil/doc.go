// Package testutil provides mocks and helpers for testing the transfer engine.
// This package is internal and should only be used for testing within the module.
package testutil
