// Package sitecontent provides the content store behind a marketing site:
// typed collections (hero, features, testimonials, process steps,
// specifications, navigation, footer, site settings) plus newsletter,
// contact and page view submissions.
//
// A single Service interface validates requests, persists records through a
// pluggable Repository and serves reads through an optional Cache.
// Repository implementations (memory, Postgres, SQLite), cache backends and
// media stores are provided under subpackages.
//
// # Caching
//
// Reads are cached per collection and normalized filter set under keys of
// the form "content:<collection>:<k=v>:...". Any write to a collection drops
// every key with that collection's prefix; writes to searchable collections
// drop cached search results too. Cache failures are logged and the store is
// read directly.
//
// # Singletons
//
// Hero content and site settings keep one current active record. Creating a
// new one deactivates the previous ones.
package sitecontent
