// Package delete removes objects in batches.
//
// Keys are split into consecutive batches of at most 1000, the limit of one
// delete-objects request, and sent one batch at a time in order.
package delete
