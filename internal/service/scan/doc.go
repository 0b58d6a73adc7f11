// Package scan runs recall-scan: one local verification session on an image
// file, asking the clarifying question on the terminal.
package scan
