// Package hashstore records, per output path, the digest of the content last
// written there together with the identity of the template that produced it.
// The engine asks IsChanged before every write; a false answer means the file
// on disk is already up to date and must not be touched.
//
// Entries survive across runs through a Backend. FileBackend keeps them in a
// single JSON document (the default .textgen.hashes file); the sqlitestore and
// badgerstore subpackages provide embedded database backends.
package hashstore
