package auth

type (
	// Credentials are the sign-in form values
	Credentials struct {
		Email    string `json:"email" form:"email" validate:"required,email"`
		Password string `json:"password" form:"password" validate:"required,min=6"`
	}

	// Registration are the sign-up form values
	Registration struct {
		Username string `json:"username" form:"username" validate:"required"`
		Email    string `json:"email" form:"email" validate:"required,email"`
		Password string `json:"password" form:"password" validate:"required,min=6"`
	}

	// FieldErrors maps a field name to its message; an empty map means the form is valid
	FieldErrors map[string]string

	userEnvelope[T any] struct {
		User T `json:"user"`
	}
)

// Valid reports whether no field carries an error
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}
