// Package store provides SQLite-backed durable storage for story chapters.
//
// The store holds two tables:
//   - chapters: one row per generated chapter (scene background, creation time)
//   - scripts: the chapter's lines, each with a zero-based order_index
//
// # Guarantees
//
// Atomic chapter writes:
//   - A chapter and all of its lines are inserted in one transaction
//   - order_index is assigned from the position in the input, so a chapter's
//     lines always occupy exactly [0, N-1]
//
// Deterministic ordering:
//   - Chapters are ordered by created_at ASC, id ASC
//   - Lines within a chapter are ordered by order_index ASC
//   - Every multi-chapter read (continuity text, search, export) uses this order
//
// Atomic reset:
//   - Clear deletes every row and resets both AUTOINCREMENT counters in one
//     transaction, so the next chapter is id 1
//   - VACUUM runs afterwards, outside the transaction
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Lines cascade with their chapter
//   - casefold(text): SQL function used by role search, backed by
//     golang.org/x/text/cases
//
// The store assumes a single writer. The connection pool is capped at one
// connection and no further locking is done.
package store
