package sim

import "errors"

// Validation rejections returned by topology and economy operations.
// State is unchanged whenever one of these is returned.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrOverlapping         = errors.New("position overlaps an existing node")
	ErrSelfLoop            = errors.New("node cannot connect to itself")
	ErrDuplicateConnection = errors.New("connection already exists")
	ErrInvalidTopology     = errors.New("invalid topology")
	ErrNotFound            = errors.New("node not found")
	ErrNotUpgradable       = errors.New("node type cannot be upgraded")
	ErrMaxTier             = errors.New("node is already at max tier")
	ErrGameOver            = errors.New("simulation is over")
	ErrInvalidTimeScale    = errors.New("invalid time scale")
	ErrUnknownNodeType     = errors.New("unknown node type")
)
