// Package goAccount provides the identity-verification and session-issuance
// core of an account service.
//
// An [Engine] turns a registration into an unverified account carrying a
// one-time code, promotes it once the code is confirmed, signs sessions on
// verification and login, and lets verified accounts recover or change their
// password. Persistence, email delivery, password hashing, and token signing
// are collaborators supplied through narrow interfaces on the [Builder].
//
// Every error returned by the Engine is a taxonomy [*Error] or wraps one, so
// transports can map [KindOf] to a status code and show [PublicMessage].
//
//	engine, err := goAccount.New().
//		WithConfig(cfg).
//		WithStore(store).
//		WithSender(sender).
//		Build()
package goAccount
