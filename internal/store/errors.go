// SPDX-License-Identifier: Apache-2.0

package store

import "errors"

// Sentinel errors returned by repository methods. Callers should match with
// [errors.Is].
var (
	// ErrProfileNotFound is returned when a lookup or delete targets a
	// profile name that is not in the store.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails before it reaches the database.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned (wrapped) when executing a query against
	// the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan profile row")
)
