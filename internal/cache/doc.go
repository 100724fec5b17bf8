// Package cache provides an in-memory LRU cache for snapshot blobs.
//
// The cache is sized in bytes and can be tied to a resource.Controller so
// that cached blobs count against the global memory budget. Blobs larger
// than the capacity, or blobs the controller refuses, are not cached.
package cache
