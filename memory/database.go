// Package memory provides the in-memory document collections that query
// plans execute over. A collection is an ordered list of object documents
// keyed by an optional namespace and a name.
package memory

import "github.com/lykia-rs/lykiadb/value"

// Database holds namespaced document collections. It is not safe for
// concurrent use; a multi-threaded host must serialize access externally.
type Database struct {
	namespaces map[string]map[string][]*value.Object
}

// New creates an empty database.
func New() *Database {
	return &Database{namespaces: map[string]map[string][]*value.Object{}}
}

// Collection returns the documents of a collection in insertion order. A
// missing collection reads as empty. The empty namespace is the default.
func (db *Database) Collection(namespace, name string) []*value.Object {
	return db.namespaces[namespace][name]
}

// Insert appends a document to a collection, creating it on first use.
func (db *Database) Insert(namespace, name string, doc *value.Object) {
	ns, ok := db.namespaces[namespace]
	if !ok {
		ns = map[string][]*value.Object{}
		db.namespaces[namespace] = ns
	}
	ns[name] = append(ns[name], doc)
}

// Replace swaps a collection's documents wholesale. Update and delete
// plans read, transform, and replace.
func (db *Database) Replace(namespace, name string, docs []*value.Object) {
	ns, ok := db.namespaces[namespace]
	if !ok {
		ns = map[string][]*value.Object{}
		db.namespaces[namespace] = ns
	}
	ns[name] = docs
}

// Seed inserts documents built from plain maps, for hosts and tests.
func (db *Database) Seed(namespace, name string, docs ...map[string]value.Value) {
	for _, doc := range docs {
		db.Insert(namespace, name, value.ObjectFrom(doc))
	}
}
