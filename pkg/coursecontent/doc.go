// Package coursecontent manages a three-level educational content
// hierarchy (Course, Lecture, Material) on top of a key-value store that
// supports lookup and range scan by a two-part key plus one secondary
// index.
//
// The package owns three disciplines the hierarchy depends on:
//
//   - Addressing. Every row's location is computed by the keys subpackage
//     from identity and position. Positions are zero-padded so the store's
//     lexicographic sort-key order is also display order.
//
//   - Cascading deletion. Courses and lectures are deleted bottom-up,
//     releasing each material's backing object before its row, so an
//     interrupted cascade is always re-runnable.
//
//   - Storage lifecycle. Each material owns exactly one backing object,
//     on the local filesystem or in remote object storage. Replacement
//     overwrites in place under a stable derived key; migration between
//     backends writes the new object before releasing the old one, with a
//     durable pending-release marker bridging the gap.
//
// Store implementations live under store/ (memory, dynamo, postgres) and
// object-storage backends under storage/ (memory, fs, s3).
package coursecontent
