package errs

import "github.com/m-mizutani/goerr/v2"

var (
	RepositoryKey = goerr.NewTypedKey[string]("repository")
	CollectionKey = goerr.NewTypedKey[string]("collection")
	DocumentIDKey = goerr.NewTypedKey[string]("document_id")
	FilePathKey   = goerr.NewTypedKey[string]("file_path")
)
