// Package recall implements read-only sources of recall records.
//
// Every source answers FindFirst with the first record whose productName equals
// the requested name exactly, in the order the backing store returns records.
// Nothing is cached: each call reads the store again.
package recall
