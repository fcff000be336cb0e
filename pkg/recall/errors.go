package recall

import (
	"github.com/Abraxas-365/coderecall/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("RECALL")

	// ErrConfigInvalid covers bad budget or selector parameters. Fatal,
	// never retried.
	ErrConfigInvalid = errorRegistry.Register(
		"CONFIG_INVALID",
		errx.TypeValidation,
		"Invalid budget or selection configuration",
	)

	// ErrOracleContract is returned when an oracle response references
	// fragments outside its request group. Surfaced as-is, never repaired.
	ErrOracleContract = errorRegistry.Register(
		"ORACLE_CONTRACT",
		errx.TypeExternal,
		"Oracle response violates the request contract",
	)

	// ErrSelectionExhausted means no relevant content was found or
	// survived budget fitting. A definitive "no answer possible" outcome.
	ErrSelectionExhausted = errorRegistry.Register(
		"SELECTION_EXHAUSTED",
		errx.TypeBusiness,
		"No relevant content fits the analyzer budget",
	)

	// ErrBudgetExceeded is the analyzer adapter's defensive re-check
	// failure. Fatal.
	ErrBudgetExceeded = errorRegistry.Register(
		"BUDGET_EXCEEDED",
		errx.TypeInternal,
		"Curated content exceeds the analyzer budget",
	)
)
