package accounts

// User es la cuenta que devuelve el API al registrarse.
type User struct {
	ID     string
	Nombre string
	Email  string
}

// Credentials del formulario de login.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// RegisterInput es el formulario de registro. La contraseña sigue la política
// de validation.PasswordProblems.
type RegisterInput struct {
	Nombre       string `validate:"required"`
	Email        string `validate:"required,email"`
	Password     string `validate:"required,password"`
	Confirmacion string `validate:"required,eqfield=Password"`
}
