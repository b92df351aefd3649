// Package docstore writes keyed documents into named collections.
//
// A Store commits batches of upserts atomically: either every write in the
// batch is applied or none is. Writing a document whose key already exists
// replaces it entirely. Drivers:
//   - firestore: Google Cloud Firestore, authenticated with a service account key file
//   - file: one JSON file per document under a local directory
//   - postgres, mysql: a single documents table, migrated with goose
//   - memory: an in-process map used for dry runs and tests
package docstore
