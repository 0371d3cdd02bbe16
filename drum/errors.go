package drum

import "errors"

// ErrInvalidParameter marks a numeric input outside its documented range.
// Values are rejected, not clamped; the error is returned before any
// synthesis work happens.
var ErrInvalidParameter = errors.New("invalid parameter")
