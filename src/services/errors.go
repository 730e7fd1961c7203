package services

import "errors"

var (
	ErrParsingFailed       = errors.New("parsing failed")
	ErrStorageFailed       = errors.New("storage failed")
	ErrNoData              = errors.New("no portfolio data loaded")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUnknownReport       = errors.New("unknown report")
)
