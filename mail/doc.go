// Package mail renders account emails and delivers them.
//
// Senders implement [Sender]. [SMTP] talks to a mail relay, [Console] logs
// messages through slog for local development, and [Retrying] wraps any
// Sender with bounded exponential backoff.
package mail
