// Package errors provides structured, actionable errors for the statekit
// command line.
//
// Each error has a registered code (e.g. "S101") that maps to a category,
// a short message and a longer explanation. Call sites add a suggestion
// and wrap the underlying cause:
//
//	err := errors.New("S101").
//	    WithDetail(`cache.backend must be one of memory, file, badger, sqlite, postgres, s3`).
//	    WithSuggestion(`Set cache.backend: file in statekit.yaml`).
//	    Wrap(cause)
//
//	errors.Print(os.Stderr, err)
//	// ERROR S101: Invalid configuration value
//	//
//	//   cache.backend must be one of memory, file, badger, sqlite, postgres, s3
//	//
//	//   Hint: Set cache.backend: file in statekit.yaml
//
// Codes are grouped by range: S1xx configuration, S2xx cache, S3xx
// authentication, S4xx command line, S5xx stores.
package errors
