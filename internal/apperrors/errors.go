package apperrors

import "errors"

// Domain entity errors represent missing or unknown entities in the system.
var (
	// ErrUnknownAsset indicates that the requested coin is not part of the configured catalog.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrFetchCycleNotFound indicates that no fetch cycle with the given ID was recorded.
	ErrFetchCycleNotFound = errors.New("fetch cycle not found")

	// ErrNoSnapshot indicates that no snapshot has been fetched yet.
	ErrNoSnapshot = errors.New("no snapshot available")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidDateRange indicates that the end of a date range precedes its start.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidThreshold indicates that an alert threshold is negative or not a number.
	ErrInvalidThreshold = errors.New("invalid alert threshold")

	// ErrInvalidAmount indicates that a converter amount is empty, negative or not a number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDirection indicates an unknown conversion direction.
	ErrInvalidDirection = errors.New("invalid conversion direction")

	// ErrInvalidPrice indicates a snapshot price that cannot be used for conversion.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrInvalidAssetID indicates that a required asset ID is empty.
	ErrInvalidAssetID = errors.New("asset ID is required")
)

// Operation failure errors represent system-level failures.
var (
	// ErrFetchFailed covers every provider failure: network error, non-2xx status and
	// malformed payload. The kinds are intentionally not differentiated.
	ErrFetchFailed = errors.New("fetch failed")

	ErrFailedToRetrieveFetchHistory = errors.New("failed to retrieve fetch history")
	ErrFailedToRecordFetch          = errors.New("failed to record fetch cycle")
	ErrFailedToGetVersionInfo       = errors.New("failed to get version information")

	// ErrDatabaseDisabled indicates that no fetch history database is configured.
	ErrDatabaseDisabled = errors.New("database disabled")
)

// FetchErrorMessage is the user-visible message set on the view state when a fetch cycle fails.
const FetchErrorMessage = "Failed to fetch data. Please try again later."
