package repository

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrNotFound   = errors.New("session not found")
	ErrNilDataset = errors.New("session has no dataset")
)
