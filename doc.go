// Package lamina implements the local view layer of an offline-first
// document database client: a durable remote document cache, a queue of
// pending local mutations, and the view service that merges the two into
// the documents a local reader should see.
//
// The client enqueues writes locally, serves reads from the merged view,
// and lets a sync engine ingest server state and retire acknowledged
// batches. Three interchangeable backends persist the state: in-memory,
// Redis (rueidis) and SQLite.
package lamina
