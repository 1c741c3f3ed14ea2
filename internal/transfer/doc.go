// Package transfer manages multipart transfers.
package transfer
