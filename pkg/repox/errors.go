package repox

import (
	"github.com/Abraxas-365/coderecall/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("REPOX")

	ErrWalkFailed = errorRegistry.Register(
		"WALK_FAILED",
		errx.TypeInternal,
		"Failed to walk repository tree",
	)

	ErrReadFailed = errorRegistry.Register(
		"READ_FAILED",
		errx.TypeInternal,
		"Failed to read repository file",
	)

	ErrEmptyRepository = errorRegistry.Register(
		"EMPTY_REPOSITORY",
		errx.TypeValidation,
		"No readable files found in repository",
	)
)
