// Package variant implements the dynamically typed values carried by remote
// calls: decoded parameters on the way in, handler results on the way out.
//
// A Value is a closed sum of Null, Int, Text, List, and Map. Accessors assert
// the expected kind and return a *TypeError (matching ErrTypeMismatch) when
// misused; there is no implicit coercion between Int and Text. Handlers that
// accept numeric text parse it explicitly.
package variant
