package app

import "errors"

var (
	ErrUsernameEmailPasswordRequired = errors.New("username, email and password required")
	ErrInvalidEmail                  = errors.New("email format is invalid")
	ErrUsernameOrEmailExists         = errors.New("username or email already exists")

	// ErrInvalidCredentials does not tell which of identifier or password was wrong.
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrCredentialsRequired = errors.New("username and password required")

	ErrNoHistory          = errors.New("no recommendation history yet")
	ErrMoodNotUnderstood  = errors.New("could not understand the mood, try describing it differently")
	ErrNoMoviesFound      = errors.New("no movies found for this mood")
	ErrCatalogUnavailable = errors.New("movie catalog unavailable")
	ErrMovieNotFound      = errors.New("movie not found")

	ErrCommentRequired = errors.New("comment text required")
	ErrCommentTooLong  = errors.New("comment must not exceed 2000 characters")

	ErrAlreadyFavorite = errors.New("movie is already a favorite")

	ErrEmailRequired        = errors.New("email required")
	ErrEmailNotRegistered   = errors.New("email is not registered")
	ErrResetRateLimited     = errors.New("too many reset code requests, try again in a minute")
	ErrResetChallengeNeeded = errors.New("reset session is required")
	ErrResetChallenge       = errors.New("reset request is invalid")
	ErrResetCodeRequired    = errors.New("reset code is required")
	ErrResetCodeInvalid     = errors.New("incorrect reset code")
	ErrResetCodeExpired     = errors.New("reset code expired")
	ErrResetTokenInvalid    = errors.New("reset token is invalid or expired")
)
