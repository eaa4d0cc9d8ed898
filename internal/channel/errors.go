package channel

import "errors"

// Custom channel service errors
var (
	// ErrChannelNotFound indicates the requested channel does not exist
	ErrChannelNotFound = errors.New("channel not found")

	// ErrDuplicateChannelName indicates a channel with the same name already exists
	ErrDuplicateChannelName = errors.New("channel name already exists")

	// ErrDuplicateChannelNumber indicates a channel with the same number already exists
	ErrDuplicateChannelNumber = errors.New("channel number already exists")

	// ErrInvalidChannelNumber indicates the channel number is not positive
	ErrInvalidChannelNumber = errors.New("channel number must be positive")

	// ErrInvalidChannelKind indicates an unrecognized channel kind
	ErrInvalidChannelKind = errors.New("invalid channel kind")

	// ErrMediaNotFound indicates a referenced media item does not exist
	ErrMediaNotFound = errors.New("media not found")
)

// IsChannelNotFound checks if the error is a channel not found error
func IsChannelNotFound(err error) bool {
	return errors.Is(err, ErrChannelNotFound)
}

// IsDuplicateName checks if the error is a duplicate channel name error
func IsDuplicateName(err error) bool {
	return errors.Is(err, ErrDuplicateChannelName)
}

// IsDuplicateNumber checks if the error is a duplicate channel number error
func IsDuplicateNumber(err error) bool {
	return errors.Is(err, ErrDuplicateChannelNumber)
}

// IsInvalidNumber checks if the error is an invalid channel number error
func IsInvalidNumber(err error) bool {
	return errors.Is(err, ErrInvalidChannelNumber)
}

// IsInvalidKind checks if the error is an invalid channel kind error
func IsInvalidKind(err error) bool {
	return errors.Is(err, ErrInvalidChannelKind)
}

// IsMediaNotFound checks if the error is a media not found error
func IsMediaNotFound(err error) bool {
	return errors.Is(err, ErrMediaNotFound)
}
