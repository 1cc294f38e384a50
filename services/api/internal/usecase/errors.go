package usecase

import "errors"

// ValidationError is a rejected input. Its text is shown to the user as is.
type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingFields       = ValidationError("All required fields must be filled.")
	ErrPasswordMismatch    = ValidationError("Passwords do not match!")
	ErrUsernameFormat      = ValidationError("Invalid username format.")
	ErrEmailFormat         = ValidationError("Invalid email format.")
	ErrInputTooLong        = ValidationError("Input too long.")
	ErrUserExists          = ValidationError("Username or email already exists!")
	ErrCredentialsRequired = ValidationError("Username and password required")
	ErrEmptyQuery          = ValidationError("Search query is required")
	ErrMediaType           = ValidationError("Invalid media type.")
	ErrPrivacy             = ValidationError("Invalid privacy setting.")
	ErrMediaURL            = ValidationError("Invalid media URL.")
	ErrEmptyPost           = ValidationError("A post needs media or text.")
	ErrCaptionTooLong      = ValidationError("Caption too long.")
	ErrBioTooLong          = ValidationError("Bio too long.")
	ErrProfilePicture      = ValidationError("Invalid profile picture URL.")
	ErrRatingRange         = ValidationError("Rating must be between 1 and 5.")
	ErrSelfRating          = ValidationError("You cannot rate your own profile.")
	ErrSelfFollow          = ValidationError("You cannot follow yourself.")
	ErrAlreadyPremium      = ValidationError("Account is already premium.")
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionExpired     = errors.New("invalid or expired session")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrStorageUnavailable = errors.New("media storage is not configured")
)
