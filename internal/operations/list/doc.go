// Package list enumerates the objects under a prefix.
//
// Pages of up to 1000 entries are fetched with the SDK paginator and
// concatenated in the order the store returns them.
package list
