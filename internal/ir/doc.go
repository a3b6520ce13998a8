// Package ir provides the compiled representation of tape programs.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - The instruction set is closed: Op is switched on exhaustively, never extended
//   - Program is immutable once constructed; accessors return copies
//   - Jump targets always point at the partner bracket instruction
//   - All JSON tags use snake_case
package ir
