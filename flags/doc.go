// Package flags resolves live variables: typed, named configuration values
// with a default.
//
// Flags are dependencies, and should be passed to the components that need
// them in the same way you'd construct and pass a database handle. Build a
// Resolver over a store in your func main, then hand components either the
// Resolver and a Key, or one of the small typed interfaces (Stringer,
// Booler, Inter, Floater) built from them.
//
// Resolution is total. An absent value, or a stored value that can't be
// read as the key's type, resolves to the key's default. Nothing in this
// package returns an error to the caller.
package flags
