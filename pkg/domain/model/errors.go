package model

import "github.com/m-mizutani/goerr/v2"

// Error tags for pipeline failures. A ShapeError means the source was readable but not
// laid out as expected.
var (
	ErrTagNetwork = goerr.NewTag("network")
	ErrTagParse   = goerr.NewTag("parse")
	ErrTagIO      = goerr.NewTag("io")
	ErrTagShape   = goerr.NewTag("shape")
)

// Sentinel errors for domain operations
var (
	ErrReportNotFound = goerr.New("report not found")
)
