// Package client runs recall-client: one remote verification session against
// recall-server. It uploads an image file as the camera frame, follows the
// server's events and answers the clarifying question from the terminal.
package client
