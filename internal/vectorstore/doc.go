// Package vectorstore maintains the clause similarity index: a growable,
// append-only collection of clause texts with vector embeddings, searched
// by inner product over L2-normalized vectors.
//
// The index keeps three parallel structures in lockstep: the embedding
// matrix, the clause metadata list and the raw text list. Insertion order
// is the sole correspondence key, so there is no update or delete path.
// Snapshots persist all three as separate artifacts which must be loaded
// together; a length mismatch on load is a fatal integrity error.
package vectorstore
