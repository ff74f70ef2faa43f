package domain

import "errors"

var (
	// ErrNoDocuments means the documents directory held no readable PDF.
	ErrNoDocuments = errors.New("no PDF documents found")

	// ErrStoreNotInitialized means query ran before a successful init.
	ErrStoreNotInitialized = errors.New("vector store not initialized, run init first")

	// ErrEmptyIndex means the store holds zero entries.
	ErrEmptyIndex = errors.New("vector store holds no entries")

	// ErrMissingAPIKey means the external-service credential is not configured.
	ErrMissingAPIKey = errors.New("API key not set")

	// ErrModelMismatch means the store was built with a different embedding
	// model than the one configured for queries.
	ErrModelMismatch = errors.New("store was built with a different embedding model")

	// ErrEmbeddingService wraps failures of the remote embedding service.
	ErrEmbeddingService = errors.New("embedding service")

	// ErrAnswerService wraps failures of the remote language-model service.
	ErrAnswerService = errors.New("language-model service")
)
