package handlers

import "github.com/go-playground/validator/v10"

// validate is shared across handlers; the validator caches struct metadata
// so a single instance is the intended usage.
var validate = validator.New(validator.WithRequiredStructEnabled())
