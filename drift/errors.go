package drift

import "errors"

var (
	// ErrSchema is returned when the observation table lacks required columns
	// or scene identifiers.
	ErrSchema = errors.New("schema error")

	// ErrConfig is returned for invalid outlier or I/O settings. It is raised
	// before any scene is processed.
	ErrConfig = errors.New("configuration error")

	// ErrNoObservations is returned when a drift file holds no usable rows.
	ErrNoObservations = errors.New("no observations")

	// ErrSingular marks a covariance estimate that cannot be inverted.
	ErrSingular = errors.New("singular covariance")
)
