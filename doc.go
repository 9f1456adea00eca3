// Package userdir manages user records in a relational store: create,
// look up by id, email or name, update inside a transaction, and delete.
//
// A Directory is built from explicit collaborators:
//
//	db, _ := database.InitDB(ctx, cfg)
//	dir := userdir.NewFromDB(db, userdir.WithHasher(hasher))
//
// Every operation fails with an *Error whose Kind tells NotFound,
// DuplicateKey and InternalFailure apart; use errors.Is with the Err*
// sentinels or KindOf to branch on it.
package userdir
