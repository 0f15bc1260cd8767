package apperrors

import "errors"

var (
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrInvalidIdentifier     = errors.New("invalid SQL identifier")
	ErrUnsupportedDatasource = errors.New("unsupported datasource type")
	ErrMissingTable          = errors.New("table not found")
)
