// Package ir provides the value types shared by the siddur packages.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - DateConditions is a comparable value, never mutated after construction
//   - Registry iteration order is declaration order, never map order
//   - All JSON tags use snake_case
package ir
