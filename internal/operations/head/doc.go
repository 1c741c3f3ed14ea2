// Package head reads object metadata without transferring content.
package head
