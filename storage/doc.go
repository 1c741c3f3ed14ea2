// Package storage moves backup packages in and out of a bucket.
//
// A Package is a set of local files produced by one trigger at one point in
// time. Transfer uploads every file of a package under
// <PathPrefix>/<Trigger>/<Time>/, retrying each file as a whole on transfer
// failures. Remove deletes everything stored under that path.
//
// Basic usage:
//
//	client, err := s3transfer.New(ctx, target)
//	if err != nil {
//	    return err
//	}
//	session := storage.New(client,
//	    storage.WithLocalDir("/var/backups/out"),
//	    storage.WithWorkers(4),
//	)
//	err = session.Transfer(ctx, storage.Package{
//	    Trigger:   "daily",
//	    Time:      "20240101-0300",
//	    Filenames: []string{"db.tar.gz", "files.tar.gz"},
//	})
package storage
