package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Authentication & User errors
// 12000-12999: Country errors
// 13000-13999: Person errors
// 14000-14999: Scoring & Event errors
// 15000-15999: Static site & Document errors
// 16000-16999: Permission errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError       ErrorCode = 10100
	RecordNotFound      ErrorCode = 10101
	RecordAlreadyExists ErrorCode = 10102
	TransactionFailed   ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError     ErrorCode = 10200
	CacheMiss      ErrorCode = 10201
	CacheSetFailed ErrorCode = 10202
	LockFailed     ErrorCode = 10203

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// Storage & messaging (10400-10499)
	StorageError   ErrorCode = 10400
	ObjectNotFound ErrorCode = 10401
	PublishFailed  ErrorCode = 10402

	// ========== Authentication & User Errors (11000-11999) ==========

	// Authentication (11000-11099)
	InvalidCredentials    ErrorCode = 11000
	UserNotFound          ErrorCode = 11001
	PasswordIncorrect     ErrorCode = 11002
	TokenExpired          ErrorCode = 11003
	TokenInvalid          ErrorCode = 11004
	TokenGenerationFailed ErrorCode = 11005
	LoginLocked           ErrorCode = 11006

	// Accounts (11100-11199)
	UsernameAlreadyExists ErrorCode = 11100
	EmailAlreadyExists    ErrorCode = 11101
	InvalidUsername       ErrorCode = 11102
	InvalidEmail          ErrorCode = 11103
	UserCountryRequired   ErrorCode = 11104

	// ========== Country Errors (12000-12999) ==========

	CountryNotFound     ErrorCode = 12000
	CountryCodeExists   ErrorCode = 12001
	CountryInvalid      ErrorCode = 12002
	CountryNotRetirable ErrorCode = 12003
	CountryCreateFailed ErrorCode = 12004
	CountryUpdateFailed ErrorCode = 12005
	InvalidGenericURL   ErrorCode = 12006
	CountryFlagMissing  ErrorCode = 12007
	CountryAccessDenied ErrorCode = 12008
	CountryRetireFailed ErrorCode = 12009

	// ========== Person Errors (13000-13999) ==========

	PersonNotFound       ErrorCode = 13000
	PersonInvalid        ErrorCode = 13001
	RoleAlreadyFilled    ErrorCode = 13002
	RegistrationDisabled ErrorCode = 13003
	PersonCreateFailed   ErrorCode = 13004
	PersonUpdateFailed   ErrorCode = 13005
	BulkRegisterInvalid  ErrorCode = 13100

	// ========== Scoring & Event Errors (14000-14999) ==========

	ScoresInvalid          ErrorCode = 14000
	ScoresFrozen           ErrorCode = 14001
	ScoresBeforeDisable    ErrorCode = 14002
	ScoresIncomplete       ErrorCode = 14003
	BoundariesInvalid      ErrorCode = 14004
	ProblemNumberInvalid   ErrorCode = 14005
	EventConfigInvalid     ErrorCode = 14100
	ScoreboardNotAvailable ErrorCode = 14200

	// ========== Static Site & Document Errors (15000-15999) ==========

	StaticSiteError   ErrorCode = 15000
	DocumentGenFailed ErrorCode = 15001
	ExportFailed      ErrorCode = 15002

	// ========== Permission Errors (16000-16999) ==========

	PermissionDenied       ErrorCode = 16000
	InsufficientPermission ErrorCode = 16001
	RoleNotFound           ErrorCode = 16002
	InvalidRole            ErrorCode = 16003
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Database
	DatabaseError:       "Database operation failed",
	RecordNotFound:      "Record not found in database",
	RecordAlreadyExists: "Record already exists",
	TransactionFailed:   "Database transaction failed",

	// Cache
	CacheError:     "Cache operation failed",
	CacheMiss:      "Cache miss",
	CacheSetFailed: "Failed to set cache",
	LockFailed:     "Failed to acquire lock",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Storage & messaging
	StorageError:   "Object storage operation failed",
	ObjectNotFound: "File not found",
	PublishFailed:  "Failed to publish event",

	// Authentication
	InvalidCredentials:    "Invalid username or password",
	UserNotFound:          "User not found",
	PasswordIncorrect:     "Incorrect password",
	TokenExpired:          "Token has expired",
	TokenInvalid:          "Invalid token",
	TokenGenerationFailed: "Failed to generate token",
	LoginLocked:           "Too many failed logins, please try again later",

	// Accounts
	UsernameAlreadyExists: "Username already exists",
	EmailAlreadyExists:    "Email address already in use",
	InvalidUsername:       "Invalid username format",
	InvalidEmail:          "Email address syntax is invalid",
	UserCountryRequired:   "Users must be associated with a country",

	// Countries
	CountryNotFound:     "Country not found",
	CountryCodeExists:   "Country code already in use",
	CountryInvalid:      "Invalid country",
	CountryNotRetirable: "This country cannot be retired",
	CountryCreateFailed: "Failed to create country",
	CountryUpdateFailed: "Failed to update country",
	InvalidGenericURL:   "Invalid previous participation URL",
	CountryFlagMissing:  "No flag for this country",
	CountryAccessDenied: "Person must be from your country",
	CountryRetireFailed: "Failed to retire country",

	// People
	PersonNotFound:       "Person not found",
	PersonInvalid:        "Invalid person details",
	RoleAlreadyFilled:    "A person with this role already exists",
	RegistrationDisabled: "Registration is now disabled, please contact the event organisers to change details of registered participants",
	PersonCreateFailed:   "Failed to create person",
	PersonUpdateFailed:   "Failed to update person",
	BulkRegisterInvalid:  "Invalid bulk registration data",

	// Scoring
	ScoresInvalid:          "Invalid scores",
	ScoresFrozen:           "Scores cannot be entered after medal boundaries are set",
	ScoresBeforeDisable:    "Registration must be disabled before scores are entered",
	ScoresIncomplete:       "Scores not all entered",
	BoundariesInvalid:      "Medal boundaries must be nonincreasing",
	ProblemNumberInvalid:   "Invalid problem number",
	EventConfigInvalid:     "Invalid event configuration",
	ScoreboardNotAvailable: "Scoreboard is not available",

	// Static site & documents
	StaticSiteError:   "Static site operation failed",
	DocumentGenFailed: "Document generation failed",
	ExportFailed:      "Export failed",

	// Permission
	PermissionDenied:       "Permission denied",
	InsufficientPermission: "Insufficient permission",
	RoleNotFound:           "Role not found",
	InvalidRole:            "Invalid role",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == LoginLocked, c == TooManyRequests:
		return 429
	case c >= 11000 && c < 11100: // Authentication errors
		return 401
	case c == Unauthorized:
		return 401
	case c == Forbidden, c == CountryAccessDenied, c >= 16000 && c < 16100: // Permission errors
		return 403
	case c == NotFound, c == UserNotFound, c == CountryNotFound, c == PersonNotFound,
		c == ObjectNotFound, c == RecordNotFound:
		return 404
	case c == UsernameAlreadyExists, c == EmailAlreadyExists, c == CountryCodeExists,
		c == RoleAlreadyFilled, c == RecordAlreadyExists:
		return 409
	case c == ServiceUnavailable, c == ScoreboardNotAvailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == InvalidUsername, c == InvalidEmail, c == UserCountryRequired:
		return 400
	case c == CountryInvalid, c == CountryNotRetirable, c == InvalidGenericURL:
		return 400
	case c >= 13000 && c < 14000 && c != PersonCreateFailed && c != PersonUpdateFailed:
		return 400
	case c >= 14000 && c < 14200:
		return 400
	default:
		return 500
	}
}
