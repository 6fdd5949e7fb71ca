package elastic

import "strings"

// idSeparator joins bucket and key in a document identity. Double dash is not
// expected inside bucket names, so identities stay collision free across buckets.
const idSeparator = "--"

// DocumentID derives the stable primary identity for an object. The same
// (bucket, key) pair always yields the same identity, making every write an
// idempotent upsert. Path separators are replaced because the engine rejects
// identifiers containing "/".
func DocumentID(bucket, key string) string {
	return strings.ReplaceAll(bucket+idSeparator+key, "/", "-")
}
