package accounts

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// Validate checks the signup payload.
func (in SignupInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Phone, validation.By(optionalPhone)),
	)
	return wrapValidation(err)
}

// Validate checks the login payload. Social logins are checked for the
// provider pair in the service so both misses map to the same
// Unauthorized, not a validation failure.
func (in LoginInput) Validate() error {
	if in.Social {
		return wrapValidation(validation.ValidateStruct(&in,
			validation.Field(&in.Email, validation.Required, is.Email),
		))
	}

	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required),
	))
}

// Validate checks the quick checkout payload.
func (in QuickCheckoutInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.FullName, validation.Required, validation.Length(1, 200)),
	))
}

// Validate checks the admin provisioning payload.
func (in AdminCreateInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Phone, validation.By(optionalPhone)),
	))
}

// Validate checks the profile patch.
func (in UpdateProfileInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Phone, validation.By(optionalPhone)),
	))
}

func optionalPhone(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return validation.NewError("validation_phone", "must be a valid international phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return validation.NewError("validation_phone", "must be a valid phone number")
	}
	return nil
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid payload").
		WithCode(goerrors.CodeBadRequest)
}
